package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/service"
)

// AdminHandler exposes the raw credit engine to operators. Regular traffic
// moves credits through reservations and item postings instead.
type AdminHandler struct {
	accounts *service.AccountService
	credits  *service.CreditService
	sweeper  *service.Sweeper
}

func NewAdminHandler(accounts *service.AccountService, credits *service.CreditService, sweeper *service.Sweeper) *AdminHandler {
	return &AdminHandler{accounts: accounts, credits: credits, sweeper: sweeper}
}

type creditOpRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
}

func (h *AdminHandler) Issue(w http.ResponseWriter, r *http.Request) {
	h.applyCreditOp(w, r, domain.EntryTypeIssue, "Manual issue")
}

func (h *AdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.applyCreditOp(w, r, domain.EntryTypeIssue, "Manual refund")
}

func (h *AdminHandler) applyCreditOp(w http.ResponseWriter, r *http.Request, entryType domain.EntryType, defaultReason string) {
	log := logging.FromContext(r.Context())

	var req creditOpRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondValidationError(w, "account_id must be a valid UUID")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondValidationError(w, "amount must be a decimal string")
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = defaultReason
	}

	result, err := h.credits.Apply(r.Context(), service.ApplyRequest{
		AccountID: accountID,
		Type:      entryType,
		Amount:    amount,
		Reason:    reason,
	})
	if err != nil {
		log.Error("credit operation failed", "error", err, "account_id", accountID, "type", entryType)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"entry":   toLedgerEntryResponse(result.Entry),
		"balance": result.NewBalance.String(),
	})
}

func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		log.Error("account list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResponse(&accounts[i]))
	}
	RespondSuccess(w, http.StatusOK, out)
}

// Sweep triggers a global cleanup of expired pending reservations. The same
// sweep runs on a timer; the endpoint exists for operators who cannot wait.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	removed, err := h.sweeper.Sweep(r.Context(), uuid.Nil)
	if err != nil {
		log.Error("manual sweep failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	ids := make([]string, 0, len(removed))
	for _, id := range removed {
		ids = append(ids, id.String())
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"removed_items": ids})
}
