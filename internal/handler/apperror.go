package handler

import "net/http"

// AppError is a stable, client-facing error. The code is part of the API
// contract; messages can change without breaking clients.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrInvalidRequest        = &AppError{Code: "INVALID_REQUEST", Message: "invalid request payload", HTTPStatus: http.StatusBadRequest}
	ErrValidation            = &AppError{Code: "VALIDATION_ERROR", Message: "request validation failed", HTTPStatus: http.StatusUnprocessableEntity}
	ErrMissingToken          = &AppError{Code: "MISSING_TOKEN", Message: "authorization token is required", HTTPStatus: http.StatusUnauthorized}
	ErrInvalidToken          = &AppError{Code: "INVALID_TOKEN", Message: "authorization token is invalid or expired", HTTPStatus: http.StatusUnauthorized}
	ErrInvalidCredentials    = &AppError{Code: "INVALID_CREDENTIALS", Message: "email or password is incorrect", HTTPStatus: http.StatusUnauthorized}
	ErrForbidden             = &AppError{Code: "FORBIDDEN", Message: "you do not have access to this resource", HTTPStatus: http.StatusForbidden}
	ErrNotFound              = &AppError{Code: "NOT_FOUND", Message: "resource not found", HTTPStatus: http.StatusNotFound}
	ErrAccountNotFound       = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "account not found", HTTPStatus: http.StatusNotFound}
	ErrItemNotFound          = &AppError{Code: "ITEM_NOT_FOUND", Message: "item not found", HTTPStatus: http.StatusNotFound}
	ErrReservationNotFound   = &AppError{Code: "RESERVATION_NOT_FOUND", Message: "reservation not found", HTTPStatus: http.StatusNotFound}
	ErrEmailTaken            = &AppError{Code: "EMAIL_TAKEN", Message: "an account with this email already exists", HTTPStatus: http.StatusConflict}
	ErrInvalidAmount         = &AppError{Code: "INVALID_AMOUNT", Message: "amount must be positive", HTTPStatus: http.StatusUnprocessableEntity}
	ErrInsufficientBalance   = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "account balance is insufficient", HTTPStatus: http.StatusUnprocessableEntity}
	ErrTransactionConflict   = &AppError{Code: "TRANSACTION_CONFLICT", Message: "transaction could not be applied, please retry", HTTPStatus: http.StatusConflict}
	ErrReservationExpired    = &AppError{Code: "RESERVATION_EXPIRED", Message: "reservation has expired", HTTPStatus: http.StatusConflict}
	ErrReservationNotPending = &AppError{Code: "RESERVATION_NOT_PENDING", Message: "reservation has already been resolved", HTTPStatus: http.StatusConflict}
	ErrReservationNotAccepted = &AppError{Code: "RESERVATION_NOT_ACCEPTED", Message: "reservation has not been accepted", HTTPStatus: http.StatusConflict}
	ErrAlreadyReserved       = &AppError{Code: "ALREADY_RESERVED", Message: "item is already reserved by this account", HTTPStatus: http.StatusConflict}
	ErrOutOfStock            = &AppError{Code: "OUT_OF_STOCK", Message: "item is out of stock", HTTPStatus: http.StatusConflict}
	ErrMissingIdempotencyKey = &AppError{Code: "MISSING_IDEMPOTENCY_KEY", Message: "Idempotency-Key header is required", HTTPStatus: http.StatusBadRequest}
	ErrIdempotencyConflict   = &AppError{Code: "IDEMPOTENCY_CONFLICT", Message: "idempotency key was used with a different request", HTTPStatus: http.StatusUnprocessableEntity}
	ErrInternalError         = &AppError{Code: "INTERNAL_ERROR", Message: "something went wrong", HTTPStatus: http.StatusInternalServerError}
)
