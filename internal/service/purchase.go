package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/repository"
)

type purchaseRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Purchase) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Purchase, error)
}

// PurchaseService completes accepted reservations. Stock is decremented
// here and only here; reserving never touches inventory.
type PurchaseService struct {
	purchases    purchaseRepo
	reservations reservationRepo
	items        itemRepo
	carts        cartRepo
	db           *sql.DB
	clock        clock.Clock
}

func NewPurchaseService(purchases purchaseRepo, reservations reservationRepo, items itemRepo, carts cartRepo, db *sql.DB, clk clock.Clock) *PurchaseService {
	return &PurchaseService{
		purchases:    purchases,
		reservations: reservations,
		items:        items,
		carts:        carts,
		db:           db,
		clock:        clk,
	}
}

// Complete turns the buyer's accepted reservation into a purchase: one unit
// comes off the item's stock, a purchase row with a pickup deadline is
// written, and the reservation and cart entry are removed.
func (s *PurchaseService) Complete(ctx context.Context, accountID, reservationID uuid.UUID) (*domain.Purchase, error) {
	log := logging.FromContext(ctx)

	var purchase *domain.Purchase
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := s.reservations.GetForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.AccountID != accountID {
			return domain.ErrNotReservationOwner
		}
		if res.Status != domain.ReservationStatusAccepted {
			return domain.ErrNotAccepted
		}

		if err := s.items.DecrementStock(ctx, tx, res.ItemID); err != nil {
			return err
		}

		now := s.clock.Now()
		p := &domain.Purchase{
			ID:        uuid.New(),
			ItemID:    res.ItemID,
			AccountID: res.AccountID,
			StoreID:   res.StoreID,
			Quantity:  res.Quantity,
			CreatedAt: now,
			PickupBy:  now.Add(domain.PickupWindow),
		}
		if err := s.purchases.Create(ctx, tx, p); err != nil {
			return err
		}

		if err := s.carts.DeleteByReservation(ctx, tx, res.ID); err != nil {
			return err
		}
		if err := s.reservations.Delete(ctx, tx, res.ID); err != nil {
			return err
		}

		purchase = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Complete: %w", err)
	}

	log.Info("purchase completed",
		"purchase_id", purchase.ID,
		"item_id", purchase.ItemID,
		"account_id", accountID,
		"pickup_by", purchase.PickupBy,
	)

	return purchase, nil
}

func (s *PurchaseService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Purchase, error) {
	purchases, err := s.purchases.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	return purchases, nil
}
