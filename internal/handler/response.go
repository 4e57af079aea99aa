package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *AppError `json:"error,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, payload APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{Success: true, Data: data})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, override *string) {
	out := *appErr
	if override != nil {
		out.Message = *override
	}
	RespondJSON(w, appErr.HTTPStatus, APIResponse{Success: false, Error: &out})
}

func RespondValidationError(w http.ResponseWriter, message string) {
	RespondAppError(w, ErrValidation, &message)
}

// RespondDomainError maps service-layer sentinels onto the API error table.
// Anything unrecognized is logged by the caller and returned as internal.
func RespondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		RespondAppError(w, ErrAccountNotFound, nil)
	case errors.Is(err, domain.ErrItemNotFound):
		RespondAppError(w, ErrItemNotFound, nil)
	case errors.Is(err, domain.ErrReservationNotFound):
		RespondAppError(w, ErrReservationNotFound, nil)
	case errors.Is(err, domain.ErrNotFound):
		RespondAppError(w, ErrNotFound, nil)
	case errors.Is(err, domain.ErrEmailTaken):
		RespondAppError(w, ErrEmailTaken, nil)
	case errors.Is(err, domain.ErrInvalidAmount):
		RespondAppError(w, ErrInvalidAmount, nil)
	case errors.Is(err, domain.ErrInsufficientBalance):
		RespondAppError(w, ErrInsufficientBalance, nil)
	case errors.Is(err, domain.ErrTransactionConflict):
		RespondAppError(w, ErrTransactionConflict, nil)
	case errors.Is(err, domain.ErrReservationExpired):
		RespondAppError(w, ErrReservationExpired, nil)
	case errors.Is(err, domain.ErrReservationNotPending):
		RespondAppError(w, ErrReservationNotPending, nil)
	case errors.Is(err, domain.ErrNotAccepted):
		RespondAppError(w, ErrReservationNotAccepted, nil)
	case errors.Is(err, domain.ErrNotStoreOwner), errors.Is(err, domain.ErrNotReservationOwner):
		RespondAppError(w, ErrForbidden, nil)
	case errors.Is(err, domain.ErrAlreadyReserved):
		RespondAppError(w, ErrAlreadyReserved, nil)
	case errors.Is(err, domain.ErrOutOfStock):
		RespondAppError(w, ErrOutOfStock, nil)
	case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrInvalidRequest):
		RespondAppError(w, ErrInvalidRequest, nil)
	default:
		RespondAppError(w, ErrInternalError, nil)
	}
}

func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
