package handler

import (
	"database/sql"
	"net/http"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		RespondAppError(w, &AppError{
			Code:       "NOT_READY",
			Message:    "database is unreachable",
			HTTPStatus: http.StatusServiceUnavailable,
		}, nil)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}
