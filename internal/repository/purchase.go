package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

type PurchaseRepository struct {
	db *sql.DB
}

func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Purchase) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO purchases (id, item_id, account_id, store_id, quantity, created_at, pickup_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.ItemID, p.AccountID, p.StoreID, p.Quantity, p.CreatedAt, p.PickupBy,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Purchase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, account_id, store_id, quantity, created_at, pickup_by
		FROM purchases WHERE account_id = $1 ORDER BY created_at DESC`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.ItemID, &p.AccountID, &p.StoreID, &p.Quantity, &p.CreatedAt, &p.PickupBy); err != nil {
			return nil, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return purchases, nil
}
