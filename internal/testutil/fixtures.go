package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

// SeedAccount inserts an account directly, bypassing signup. Balance is
// written without a matching ledger entry, which is fine for tests that do
// not assert the ledger-sum invariant from zero.
func SeedAccount(t *testing.T, db *sql.DB, role domain.Role, balance decimal.Decimal) *domain.Account {
	t.Helper()

	account := &domain.Account{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("%s-%s@test.local", role, uuid.NewString()[:8]),
		PasswordHash: "$2a$10$fixturehashfixturehashfixturehashfixtureha",
		Role:         role,
		Balance:      balance,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
	}
	if role == domain.RoleSeller {
		name := "Test Store"
		addr := "1 Test Street"
		account.StoreName = &name
		account.Address = &addr
	}

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO accounts (id, email, password_hash, role, store_name, address, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.Email, account.PasswordHash, account.Role,
		account.StoreName, account.Address, account.Balance, account.Version, account.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func SeedItem(t *testing.T, db *sql.DB, storeID uuid.UUID, price decimal.Decimal, quantity int) *domain.Item {
	t.Helper()

	item := &domain.Item{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      "Fixture Item " + uuid.NewString()[:8],
		Category:  "fixtures",
		Price:     price,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO items (id, store_id, name, description, category, price, quantity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.StoreID, item.Name, item.Description, item.Category,
		item.Price, item.Quantity, item.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

// SeedReservation inserts a reservation with an explicit creation time so
// tests can backdate holds past the TTL.
func SeedReservation(t *testing.T, db *sql.DB, item *domain.Item, accountID uuid.UUID, status domain.ReservationStatus, createdAt time.Time) *domain.Reservation {
	t.Helper()

	res := &domain.Reservation{
		ID:         uuid.New(),
		ItemID:     item.ID,
		AccountID:  accountID,
		StoreID:    item.StoreID,
		Status:     status,
		Quantity:   1,
		PickupCode: "123456",
		CreatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(domain.ReservationTTL),
	}

	ctx := context.Background()
	_, err := db.ExecContext(ctx,
		`INSERT INTO reservations (id, item_id, account_id, store_id, status, quantity, pickup_code, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ID, res.ItemID, res.AccountID, res.StoreID, res.Status,
		res.Quantity, res.PickupCode, res.CreatedAt, res.ExpiresAt,
	)
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO cart_entries (account_id, item_id, reservation_id, reserved_at)
		 VALUES ($1, $2, $3, $4)`,
		res.AccountID, res.ItemID, res.ID, res.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed cart entry: %v", err)
	}
	return res
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRowContext(context.Background(),
		`SELECT balance FROM accounts WHERE id = $1`, accountID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return balance
}

func CountLedgerEntries(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count ledger entries: %v", err)
	}
	return n
}

// SumLedger returns issues minus spends for the account.
func SumLedger(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var sum decimal.Decimal
	err := db.QueryRowContext(context.Background(),
		`SELECT COALESCE(SUM(CASE WHEN entry_type = 'ISSUE' THEN amount ELSE -amount END), 0)
		 FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&sum)
	if err != nil {
		t.Fatalf("sum ledger: %v", err)
	}
	return sum
}
