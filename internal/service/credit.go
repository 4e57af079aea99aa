package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/observability"
	"github.com/ccournoyer/firesale-backend/internal/repository"
)

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type ledgerRepo interface {
	Append(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

// CreditService is the single owner of the balance+ledger pair. Every credit
// movement in the system goes through Apply; no other component writes
// either field.
type CreditService struct {
	accounts   accountRepo
	ledger     ledgerRepo
	db         *sql.DB
	clock      clock.Clock
	metrics    *observability.Metrics
	maxRetries int
}

func NewCreditService(accounts accountRepo, ledger ledgerRepo, db *sql.DB, clk clock.Clock, metrics *observability.Metrics, maxRetries int) *CreditService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &CreditService{
		accounts:   accounts,
		ledger:     ledger,
		db:         db,
		clock:      clk,
		metrics:    metrics,
		maxRetries: maxRetries,
	}
}

type ApplyRequest struct {
	AccountID uuid.UUID
	Type      domain.EntryType
	Amount    decimal.Decimal
	Reason    string
}

type ApplyResult struct {
	Entry      domain.LedgerEntry
	NewBalance decimal.Decimal
}

// Apply commits one credit transaction: a conditional balance write and a
// ledger append in a single database transaction. A concurrent writer makes
// the version check fail, in which case the whole read-modify-write is
// retried against the fresh balance, up to the configured bound. Apply is
// not idempotent; callers needing dedup must key requests externally.
func (s *CreditService) Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	log := logging.FromContext(ctx)

	if err := validateApply(req); err != nil {
		s.metrics.TransactionsRejected.WithLabelValues("invalid_amount").Inc()
		return nil, fmt.Errorf("Apply: %w", err)
	}

	timer := s.clock.Now()
	var result *ApplyResult

	err := s.withRetry(ctx, func(tx *sql.Tx) error {
		r, err := s.applyAttempt(ctx, tx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			s.metrics.TransactionsRejected.WithLabelValues("insufficient_balance").Inc()
		case errors.Is(err, domain.ErrAccountNotFound):
			s.metrics.TransactionsRejected.WithLabelValues("account_not_found").Inc()
		case errors.Is(err, domain.ErrTransactionConflict):
			s.metrics.TransactionsRejected.WithLabelValues("conflict").Inc()
		}
		return nil, fmt.Errorf("Apply: %w", err)
	}

	s.metrics.TransactionsApplied.WithLabelValues(string(req.Type)).Inc()
	s.metrics.TransactionDuration.Observe(s.clock.Now().Sub(timer).Seconds())

	log.Info("credit transaction committed",
		"account_id", req.AccountID,
		"type", req.Type,
		"amount", req.Amount,
		"reason", req.Reason,
		"new_balance", result.NewBalance,
	)

	return result, nil
}

// withRetry runs fn in its own transaction, retrying from scratch whenever
// the optimistic version check loses a race.
func (s *CreditService) withRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = repository.InTx(ctx, s.db, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		s.metrics.TransactionRetries.Inc()
	}
	return fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
}

// applyAttempt performs one read-modify-write inside the caller's
// transaction. Other services compose it with their own writes so that, for
// example, a reservation row can only exist if the fee spend committed.
func (s *CreditService) applyAttempt(ctx context.Context, tx *sql.Tx, req ApplyRequest) (*ApplyResult, error) {
	account, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("applyAttempt: %w", err)
	}

	if req.Type == domain.EntryTypeSpend && account.Balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("applyAttempt: %w", domain.ErrInsufficientBalance)
	}

	newBalance := account.Balance.Add(req.Amount)
	if req.Type == domain.EntryTypeSpend {
		newBalance = account.Balance.Sub(req.Amount)
	}

	entry := domain.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     req.AccountID,
		EntryType:     req.Type,
		Amount:        req.Amount,
		Reason:        req.Reason,
		BalanceBefore: account.Balance,
		BalanceAfter:  newBalance,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version+1); err != nil {
		return nil, fmt.Errorf("applyAttempt: %w", err)
	}
	if err := s.ledger.Append(ctx, tx, &entry); err != nil {
		return nil, fmt.Errorf("applyAttempt: %w", err)
	}

	return &ApplyResult{Entry: entry, NewBalance: newBalance}, nil
}

func (s *CreditService) GetLedger(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, fmt.Errorf("GetLedger: %w", err)
	}
	entries, total, err := s.ledger.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("GetLedger: %w", err)
	}
	return entries, total, nil
}

func validateApply(req ApplyRequest) error {
	if !req.Type.IsValid() {
		return domain.ErrInvalidRequest
	}
	if !req.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	return nil
}
