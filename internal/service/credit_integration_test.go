package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/observability"
	"github.com/ccournoyer/firesale-backend/internal/repository"
	"github.com/ccournoyer/firesale-backend/internal/service"
	"github.com/ccournoyer/firesale-backend/internal/testutil"
)

func newMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

func setupCreditService(t *testing.T, db *sql.DB, clk clock.Clock) *service.CreditService {
	t.Helper()
	return service.NewCreditService(
		repository.NewAccountRepository(db),
		repository.NewLedgerRepository(db),
		db,
		clk,
		newMetrics(),
		3,
	)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApply_IssueAndSpend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))

	issued, err := svc.Apply(ctx, service.ApplyRequest{
		AccountID: account.ID,
		Type:      domain.EntryTypeIssue,
		Amount:    dec("250"),
		Reason:    "Manual issue",
	})
	require.NoError(t, err)
	assert.True(t, issued.NewBalance.Equal(dec("350")), "balance after issue: %s", issued.NewBalance)
	assert.True(t, issued.Entry.BalanceBefore.Equal(dec("100")))
	assert.True(t, issued.Entry.BalanceAfter.Equal(dec("350")))
	assert.Equal(t, domain.EntryTypeIssue, issued.Entry.EntryType)

	spent, err := svc.Apply(ctx, service.ApplyRequest{
		AccountID: account.ID,
		Type:      domain.EntryTypeSpend,
		Amount:    dec("50"),
		Reason:    "Reserve Vintage Lamp",
	})
	require.NoError(t, err)
	assert.True(t, spent.NewBalance.Equal(dec("300")))
	assert.True(t, spent.Entry.BalanceBefore.Equal(dec("350")))
	assert.True(t, spent.Entry.BalanceAfter.Equal(dec("300")))

	assert.True(t, testutil.GetAccountBalance(t, db, account.ID).Equal(dec("300")))
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, db, account.ID))

	// seed balance 100 is outside the ledger, so entries must sum to +200
	assert.True(t, testutil.SumLedger(t, db, account.ID).Equal(dec("200")))
}

func TestApply_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("30"))

	_, err := svc.Apply(ctx, service.ApplyRequest{
		AccountID: account.ID,
		Type:      domain.EntryTypeSpend,
		Amount:    dec("30.01"),
		Reason:    "Reserve Vintage Lamp",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.True(t, testutil.GetAccountBalance(t, db, account.ID).Equal(dec("30")))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, account.ID))
}

func TestApply_SpendToExactlyZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("15"))

	result, err := svc.Apply(ctx, service.ApplyRequest{
		AccountID: account.ID,
		Type:      domain.EntryTypeSpend,
		Amount:    dec("15"),
		Reason:    "Reserve Vintage Lamp",
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.IsZero())
}

func TestApply_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))

	tests := []struct {
		name      string
		req       service.ApplyRequest
		wantErrIs error
	}{
		{
			name: "zero amount",
			req: service.ApplyRequest{
				AccountID: account.ID,
				Type:      domain.EntryTypeIssue,
				Amount:    decimal.Zero,
				Reason:    "Manual issue",
			},
			wantErrIs: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			req: service.ApplyRequest{
				AccountID: account.ID,
				Type:      domain.EntryTypeSpend,
				Amount:    dec("-5"),
				Reason:    "Manual issue",
			},
			wantErrIs: domain.ErrInvalidAmount,
		},
		{
			name: "unknown entry type",
			req: service.ApplyRequest{
				AccountID: account.ID,
				Type:      domain.EntryType("TRANSFER"),
				Amount:    dec("5"),
				Reason:    "Manual issue",
			},
			wantErrIs: domain.ErrInvalidRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Apply(ctx, tc.req)
			require.ErrorIs(t, err, tc.wantErrIs)
		})
	}

	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, account.ID))
}

func TestApply_UnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())

	_, err := svc.Apply(context.Background(), service.ApplyRequest{
		AccountID: uuid.New(),
		Type:      domain.EntryTypeIssue,
		Amount:    dec("10"),
		Reason:    "Manual issue",
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestApply_ConcurrentSpends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, service.ApplyRequest{
				AccountID: account.ID,
				Type:      domain.EntryTypeSpend,
				Amount:    dec("70"),
				Reason:    "Reserve Vintage Lamp",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one spend should succeed")
	assert.Equal(t, 1, failures, "exactly one spend should fail")

	balance := testutil.GetAccountBalance(t, db, account.ID)
	assert.True(t, balance.Equal(dec("30")), "balance must be 30, not negative: %s", balance)
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, account.ID))
}

func TestApply_ConcurrentIssuesAllLand(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, domain.RoleBuyer, decimal.Zero)

	const workers = 3
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, service.ApplyRequest{
				AccountID: account.ID,
				Type:      domain.EntryTypeIssue,
				Amount:    dec("10"),
				Reason:    "Manual issue",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	for err := range results {
		// retries absorb version conflicts up to the bound; with three
		// writers none should exhaust it
		require.NoError(t, err)
	}

	assert.True(t, testutil.GetAccountBalance(t, db, account.ID).Equal(dec("30")))
	assert.Equal(t, workers, testutil.CountLedgerEntries(t, db, account.ID))
	assert.True(t, testutil.SumLedger(t, db, account.ID).Equal(dec("30")))
}

func TestGetLedger_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db, clock.NewSystem())
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, domain.RoleBuyer, decimal.Zero)

	for range 5 {
		_, err := svc.Apply(ctx, service.ApplyRequest{
			AccountID: account.ID,
			Type:      domain.EntryTypeIssue,
			Amount:    dec("1"),
			Reason:    "Manual issue",
		})
		require.NoError(t, err)
	}

	entries, total, err := svc.GetLedger(ctx, account.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, entries, 2)

	entries, total, err = svc.GetLedger(ctx, account.ID, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, entries, 1)
}
