package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/observability"
	"github.com/ccournoyer/firesale-backend/internal/repository"
)

type itemRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]domain.Item, error)
	Create(ctx context.Context, tx *sql.Tx, item *domain.Item) error
	DecrementStock(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type reservationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Reservation, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Reservation, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, status domain.ReservationStatus) ([]domain.Reservation, error)
	Create(ctx context.Context, tx *sql.Tx, res *domain.Reservation) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.ReservationStatus) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type cartRepo interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.CartEntry, error)
	Create(ctx context.Context, tx *sql.Tx, entry *domain.CartEntry) error
	DeleteByReservation(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID) error
}

// ReservationService drives the pending → accepted/declined state machine
// and the buyer's cart view of it.
type ReservationService struct {
	credits      *CreditService
	items        itemRepo
	reservations reservationRepo
	carts        cartRepo
	db           *sql.DB
	clock        clock.Clock
	metrics      *observability.Metrics
	fee          decimal.Decimal
	ttl          time.Duration
}

func NewReservationService(
	credits *CreditService,
	items itemRepo,
	reservations reservationRepo,
	carts cartRepo,
	db *sql.DB,
	clk clock.Clock,
	metrics *observability.Metrics,
	fee decimal.Decimal,
	ttl time.Duration,
) *ReservationService {
	return &ReservationService{
		credits:      credits,
		items:        items,
		reservations: reservations,
		carts:        carts,
		db:           db,
		clock:        clk,
		metrics:      metrics,
		fee:          fee,
		ttl:          ttl,
	}
}

// Reserve spends the reservation fee and creates the pending reservation
// plus its cart entry in one transaction. If the spend fails nothing else is
// written, so a reservation can never exist without its paid fee.
func (s *ReservationService) Reserve(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Reservation, error) {
	log := logging.FromContext(ctx)

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("Reserve: %w", domain.ErrOutOfStock)
	}

	code, err := generatePickupCode()
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}

	var reservation *domain.Reservation
	err = s.credits.withRetry(ctx, func(tx *sql.Tx) error {
		_, err := s.credits.applyAttempt(ctx, tx, ApplyRequest{
			AccountID: accountID,
			Type:      domain.EntryTypeSpend,
			Amount:    s.fee,
			Reason:    "Reserve " + item.Name,
		})
		if err != nil {
			return err
		}

		now := s.clock.Now()
		res := &domain.Reservation{
			ID:         uuid.New(),
			ItemID:     item.ID,
			AccountID:  accountID,
			StoreID:    item.StoreID,
			Status:     domain.ReservationStatusPending,
			Quantity:   1,
			PickupCode: code,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.ttl),
		}
		if err := s.reservations.Create(ctx, tx, res); err != nil {
			return err
		}

		entry := &domain.CartEntry{
			AccountID:     accountID,
			ItemID:        item.ID,
			ReservationID: res.ID,
			ReservedAt:    now,
		}
		if err := s.carts.Create(ctx, tx, entry); err != nil {
			return err
		}

		reservation = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}

	s.metrics.ReservationsCreated.Inc()
	log.Info("reservation created",
		"reservation_id", reservation.ID,
		"item_id", item.ID,
		"account_id", accountID,
		"store_id", item.StoreID,
		"expires_at", reservation.ExpiresAt,
	)

	return reservation, nil
}

// Accept moves a pending reservation to accepted, making the pickup code
// meaningful to the buyer. Only the owning store may call this.
func (s *ReservationService) Accept(ctx context.Context, storeID, reservationID uuid.UUID) (*domain.Reservation, error) {
	res, err := s.resolve(ctx, storeID, reservationID, domain.ReservationStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("Accept: %w", err)
	}
	return res, nil
}

// Decline moves a pending reservation to declined. No refund is issued.
func (s *ReservationService) Decline(ctx context.Context, storeID, reservationID uuid.UUID) (*domain.Reservation, error) {
	res, err := s.resolve(ctx, storeID, reservationID, domain.ReservationStatusDeclined)
	if err != nil {
		return nil, fmt.Errorf("Decline: %w", err)
	}
	return res, nil
}

func (s *ReservationService) resolve(ctx context.Context, storeID, reservationID uuid.UUID, target domain.ReservationStatus) (*domain.Reservation, error) {
	var updated *domain.Reservation

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := s.reservations.GetForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.StoreID != storeID {
			return domain.ErrNotStoreOwner
		}
		if res.Status != domain.ReservationStatusPending {
			return domain.ErrReservationNotPending
		}
		if res.Expired(s.clock.Now()) {
			return domain.ErrReservationExpired
		}

		if err := s.reservations.UpdateStatus(ctx, tx, res.ID, target); err != nil {
			return err
		}

		res.Status = target
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReservationsResolved.WithLabelValues(string(target)).Inc()
	return updated, nil
}

// Cancel lets the buyer delete their own pending reservation along with its
// cart entry. The fee stays spent, matching expiry behavior.
func (s *ReservationService) Cancel(ctx context.Context, accountID, reservationID uuid.UUID) error {
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := s.reservations.GetForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.AccountID != accountID {
			return domain.ErrNotReservationOwner
		}
		if res.Status != domain.ReservationStatusPending {
			return domain.ErrReservationNotPending
		}

		if err := s.carts.DeleteByReservation(ctx, tx, res.ID); err != nil {
			return err
		}
		return s.reservations.Delete(ctx, tx, res.ID)
	})
	if err != nil {
		return fmt.Errorf("Cancel: %w", err)
	}
	return nil
}

func (s *ReservationService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Reservation, error) {
	reservations, err := s.reservations.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	return reservations, nil
}

func (s *ReservationService) ListByStore(ctx context.Context, storeID uuid.UUID, status domain.ReservationStatus) ([]domain.Reservation, error) {
	reservations, err := s.reservations.ListByStore(ctx, storeID, status)
	if err != nil {
		return nil, fmt.Errorf("ListByStore: %w", err)
	}
	return reservations, nil
}

// CartLine joins a cart entry with the reservation and item it points at.
type CartLine struct {
	Entry       domain.CartEntry
	Reservation domain.Reservation
	Item        domain.Item
}

// Cart returns the buyer's current cart. Callers wanting a fresh view run
// the sweeper first; the cart itself is just read here.
func (s *ReservationService) Cart(ctx context.Context, accountID uuid.UUID) ([]CartLine, error) {
	entries, err := s.carts.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("Cart: %w", err)
	}

	lines := make([]CartLine, 0, len(entries))
	for _, entry := range entries {
		res, err := s.reservations.GetByID(ctx, entry.ReservationID)
		if err != nil {
			return nil, fmt.Errorf("Cart: %w", err)
		}
		item, err := s.items.GetByID(ctx, entry.ItemID)
		if err != nil {
			return nil, fmt.Errorf("Cart: %w", err)
		}
		lines = append(lines, CartLine{Entry: entry, Reservation: *res, Item: *item})
	}
	return lines, nil
}

func generatePickupCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generatePickupCode: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
