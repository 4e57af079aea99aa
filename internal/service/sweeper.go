package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/observability"
	"github.com/ccournoyer/firesale-backend/internal/repository"
)

type sweepCartRepo interface {
	DeleteExpired(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, cutoff time.Time) ([]uuid.UUID, error)
}

type sweepReservationRepo interface {
	DeleteExpiredPending(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, now time.Time) (int64, error)
}

// Sweeper removes expired cart entries and their pending reservations. Each
// pass reads fresh state inside its own transaction, so a reservation
// created while a sweep runs can never be collected by it. Failures are left
// for the next tick.
type Sweeper struct {
	carts        sweepCartRepo
	reservations sweepReservationRepo
	db           *sql.DB
	clock        clock.Clock
	metrics      *observability.Metrics
	ttl          time.Duration
	interval     time.Duration
}

func NewSweeper(carts sweepCartRepo, reservations sweepReservationRepo, db *sql.DB, clk clock.Clock, metrics *observability.Metrics, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{
		carts:        carts,
		reservations: reservations,
		db:           db,
		clock:        clk,
		metrics:      metrics,
		ttl:          ttl,
		interval:     interval,
	}
}

// Sweep clears expired state for one account, or for every account when
// accountID is uuid.Nil. It returns the item ids dropped from carts and is
// a no-op when nothing has expired.
func (s *Sweeper) Sweep(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.ttl)

	started := time.Now()
	var removed []uuid.UUID

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		itemIDs, err := s.carts.DeleteExpired(ctx, tx, accountID, cutoff)
		if err != nil {
			return err
		}
		if _, err := s.reservations.DeleteExpiredPending(ctx, tx, accountID, now); err != nil {
			return err
		}
		removed = itemIDs
		return nil
	})
	if err != nil {
		s.metrics.SweepFailures.Inc()
		return nil, fmt.Errorf("Sweep: %w", err)
	}

	s.metrics.SweepRuns.Inc()
	s.metrics.SweepRemovals.Add(float64(len(removed)))
	s.metrics.SweepDuration.Observe(time.Since(started).Seconds())

	if len(removed) > 0 {
		logging.FromContext(ctx).Info("expired reservations swept",
			"account_id", accountID,
			"removed", len(removed),
		)
	}

	return removed, nil
}

// Run sweeps all accounts on the configured interval until ctx is done.
// A failed pass is logged and retried on the next tick; the loop never
// stops on error.
func (s *Sweeper) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info("reservation sweeper started", "interval", s.interval, "ttl", s.ttl)

	for {
		select {
		case <-ctx.Done():
			log.Info("reservation sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, uuid.Nil); err != nil {
				log.Error("sweep failed, will retry next tick", "error", err)
			}
		}
	}
}
