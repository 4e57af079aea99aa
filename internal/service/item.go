package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
)

// ItemService handles seller postings. Posting an item costs a fixed fee,
// spent through the credit engine in the same transaction that creates the
// item row.
type ItemService struct {
	credits *CreditService
	items   itemRepo
	db      *sql.DB
	clock   clock.Clock
	fee     decimal.Decimal
}

func NewItemService(credits *CreditService, items itemRepo, db *sql.DB, clk clock.Clock, fee decimal.Decimal) *ItemService {
	return &ItemService{
		credits: credits,
		items:   items,
		db:      db,
		clock:   clk,
		fee:     fee,
	}
}

type PostItemInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Quantity    int
}

func (in PostItemInput) validate() error {
	if in.Name == "" {
		return domain.ErrInvalidRequest
	}
	if in.Quantity <= 0 {
		return domain.ErrInvalidRequest
	}
	if in.Price.IsNegative() {
		return domain.ErrInvalidRequest
	}
	return nil
}

func (s *ItemService) PostItem(ctx context.Context, storeID uuid.UUID, in PostItemInput) (*domain.Item, error) {
	log := logging.FromContext(ctx)

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("PostItem: %w", err)
	}

	var item *domain.Item
	err := s.credits.withRetry(ctx, func(tx *sql.Tx) error {
		_, err := s.credits.applyAttempt(ctx, tx, ApplyRequest{
			AccountID: storeID,
			Type:      domain.EntryTypeSpend,
			Amount:    s.fee,
			Reason:    "Post item " + in.Name,
		})
		if err != nil {
			return err
		}

		i := &domain.Item{
			ID:          uuid.New(),
			StoreID:     storeID,
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			Price:       in.Price,
			Quantity:    in.Quantity,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.items.Create(ctx, tx, i); err != nil {
			return err
		}

		item = i
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("PostItem: %w", err)
	}

	log.Info("item posted",
		"item_id", item.ID,
		"store_id", storeID,
		"name", item.Name,
		"quantity", item.Quantity,
	)

	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetItem: %w", err)
	}
	return item, nil
}

func (s *ItemService) ListItems(ctx context.Context) ([]domain.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	return items, nil
}

func (s *ItemService) ListStoreItems(ctx context.Context, storeID uuid.UUID) ([]domain.Item, error) {
	items, err := s.items.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("ListStoreItems: %w", err)
	}
	return items, nil
}
