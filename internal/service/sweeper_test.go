package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/repository"
	"github.com/ccournoyer/firesale-backend/internal/service"
	"github.com/ccournoyer/firesale-backend/internal/testutil"
)

func setupSweeper(t *testing.T, db *sql.DB, clk clock.Clock) *service.Sweeper {
	t.Helper()
	return service.NewSweeper(
		repository.NewCartRepository(db),
		repository.NewReservationRepository(db),
		db,
		clk,
		newMetrics(),
		domain.ReservationTTL,
		time.Minute,
	)
}

func TestSweep_RemovesExpiredKeepsFresh(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seller := testutil.SeedAccount(t, db, domain.RoleSeller, dec("0"))
	buyer := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))

	expiredItem := testutil.SeedItem(t, db, seller.ID, dec("40"), 1)
	freshItem := testutil.SeedItem(t, db, seller.ID, dec("25"), 1)

	expired := testutil.SeedReservation(t, db, expiredItem, buyer.ID, domain.ReservationStatusPending,
		now.Add(-domain.ReservationTTL-time.Minute))
	fresh := testutil.SeedReservation(t, db, freshItem, buyer.ID, domain.ReservationStatusPending,
		now.Add(-time.Minute))

	sweeper := setupSweeper(t, db, clock.NewSystem())
	removed, err := sweeper.Sweep(ctx, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, expiredItem.ID, removed[0])

	reservations := repository.NewReservationRepository(db)
	_, err = reservations.GetByID(ctx, expired.ID)
	require.ErrorIs(t, err, domain.ErrReservationNotFound)

	kept, err := reservations.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusPending, kept.Status)

	// fee is never refunded on expiry
	assert.True(t, testutil.GetAccountBalance(t, db, buyer.ID).Equal(dec("100")))
}

func TestSweep_Rerun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seller := testutil.SeedAccount(t, db, domain.RoleSeller, dec("0"))
	buyer := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))
	item := testutil.SeedItem(t, db, seller.ID, dec("40"), 1)
	testutil.SeedReservation(t, db, item, buyer.ID, domain.ReservationStatusPending,
		now.Add(-domain.ReservationTTL-time.Minute))

	sweeper := setupSweeper(t, db, clock.NewSystem())

	removed, err := sweeper.Sweep(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	// a second pass finds nothing to do
	removed, err = sweeper.Sweep(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestSweep_SkipsResolvedReservations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seller := testutil.SeedAccount(t, db, domain.RoleSeller, dec("0"))
	buyer := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))
	item := testutil.SeedItem(t, db, seller.ID, dec("40"), 1)

	// accepted long ago, past the TTL; acceptance makes the hold permanent
	accepted := testutil.SeedReservation(t, db, item, buyer.ID, domain.ReservationStatusAccepted,
		now.Add(-domain.ReservationTTL-time.Hour))

	sweeper := setupSweeper(t, db, clock.NewSystem())
	_, err := sweeper.Sweep(ctx, uuid.Nil)
	require.NoError(t, err)

	kept, err := repository.NewReservationRepository(db).GetByID(ctx, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusAccepted, kept.Status)
}

func TestSweep_ScopedToAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seller := testutil.SeedAccount(t, db, domain.RoleSeller, dec("0"))
	buyerA := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))
	buyerB := testutil.SeedAccount(t, db, domain.RoleBuyer, dec("100"))

	itemA := testutil.SeedItem(t, db, seller.ID, dec("40"), 1)
	itemB := testutil.SeedItem(t, db, seller.ID, dec("25"), 1)

	resA := testutil.SeedReservation(t, db, itemA, buyerA.ID, domain.ReservationStatusPending,
		now.Add(-domain.ReservationTTL-time.Minute))
	resB := testutil.SeedReservation(t, db, itemB, buyerB.ID, domain.ReservationStatusPending,
		now.Add(-domain.ReservationTTL-time.Minute))

	sweeper := setupSweeper(t, db, clock.NewSystem())
	removed, err := sweeper.Sweep(ctx, buyerA.ID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, itemA.ID, removed[0])

	reservations := repository.NewReservationRepository(db)
	_, err = reservations.GetByID(ctx, resA.ID)
	require.ErrorIs(t, err, domain.ErrReservationNotFound)

	_, err = reservations.GetByID(ctx, resB.ID)
	require.NoError(t, err)
}
