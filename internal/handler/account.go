package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/auth"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/service"
)

type AccountHandler struct {
	accounts    *service.AccountService
	credits     *service.CreditService
	topUpAmount decimal.Decimal
}

func NewAccountHandler(accounts *service.AccountService, credits *service.CreditService, topUpAmount decimal.Decimal) *AccountHandler {
	return &AccountHandler{accounts: accounts, credits: credits, topUpAmount: topUpAmount}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	account, err := h.accounts.GetAccount(r.Context(), session.AccountID)
	if err != nil {
		log.Error("account lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountResponse(account))
}

type ledgerEntryResponse struct {
	ID            string `json:"id"`
	EntryType     string `json:"entry_type"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	CreatedAt     string `json:"created_at"`
}

func toLedgerEntryResponse(e domain.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:            e.ID.String(),
		EntryType:     string(e.EntryType),
		Amount:        e.Amount.String(),
		Reason:        e.Reason,
		BalanceBefore: e.BalanceBefore.String(),
		BalanceAfter:  e.BalanceAfter.String(),
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Ledger returns the caller's entries, newest first.
func (h *AccountHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 200 {
		RespondValidationError(w, "limit must be between 1 and 200")
		return
	}
	if offset < 0 {
		RespondValidationError(w, "offset must not be negative")
		return
	}

	entries, total, err := h.credits.GetLedger(r.Context(), session.AccountID, limit, offset)
	if err != nil {
		log.Error("ledger read failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLedgerEntryResponse(e))
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"entries": out,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// TopUp issues the fixed top-up amount to the caller's own account. The
// amount is server-configured; the request body is empty on purpose.
func (h *AccountHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	result, err := h.credits.Apply(r.Context(), service.ApplyRequest{
		AccountID: session.AccountID,
		Type:      domain.EntryTypeIssue,
		Amount:    h.topUpAmount,
		Reason:    "Manual top-up",
	})
	if err != nil {
		log.Error("top-up failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"entry":   toLedgerEntryResponse(result.Entry),
		"balance": result.NewBalance.String(),
	})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	return parseUUID(r.PathValue(name))
}

func parseUUID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
