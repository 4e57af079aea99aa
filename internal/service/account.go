package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/repository"
)

type accountStore interface {
	accountRepo
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Create(ctx context.Context, tx *sql.Tx, account *domain.Account) error
}

// AccountService owns signup and account reads. Signup seeds the balance
// with the bonus and writes the matching ledger entry in one transaction, so
// even the very first balance satisfies the ledger-sum invariant.
type AccountService struct {
	accounts accountStore
	ledger   ledgerRepo
	db       *sql.DB
	clock    clock.Clock
	bonus    decimal.Decimal
}

func NewAccountService(accounts accountStore, ledger ledgerRepo, db *sql.DB, clk clock.Clock, bonus decimal.Decimal) *AccountService {
	return &AccountService{
		accounts: accounts,
		ledger:   ledger,
		db:       db,
		clock:    clk,
		bonus:    bonus,
	}
}

type SignupInput struct {
	Email     string
	Password  string
	Role      domain.Role
	StoreName string
	Address   string
}

func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if in.Role != domain.RoleBuyer && in.Role != domain.RoleSeller {
		return nil, fmt.Errorf("Signup: %w", domain.ErrInvalidRole)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Signup: hash password: %w", err)
	}

	now := s.clock.Now()
	account := &domain.Account{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Balance:      s.bonus,
		Version:      1,
		CreatedAt:    now,
	}
	if in.Role == domain.RoleSeller {
		account.StoreName = &in.StoreName
		account.Address = &in.Address
	}

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.accounts.Create(ctx, tx, account); err != nil {
			return err
		}
		return s.ledger.Append(ctx, tx, &domain.LedgerEntry{
			ID:            uuid.New(),
			AccountID:     account.ID,
			EntryType:     domain.EntryTypeIssue,
			Amount:        s.bonus,
			Reason:        "Initial signup bonus",
			BalanceBefore: decimal.Zero,
			BalanceAfter:  s.bonus,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("Signup: %w", err)
	}

	log.Info("account created",
		"account_id", account.ID,
		"role", account.Role,
		"signup_bonus", s.bonus,
	)

	return account, nil
}

// Authenticate checks the credentials and returns the account. A missing
// email and a wrong password both come back as ErrNotFound so the caller
// cannot tell which one failed.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrNotFound)
	}
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}
