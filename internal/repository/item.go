package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

const itemColumns = `id, store_id, name, description, category, price, quantity, created_at`

type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id,
	)
	i, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrItemNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return i, nil
}

func (r *ItemRepository) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *ItemRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE store_id = $1 ORDER BY created_at DESC`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStore: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *ItemRepository) Create(ctx context.Context, tx *sql.Tx, item *domain.Item) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO items (id, store_id, name, description, category, price, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.StoreID, item.Name, item.Description, item.Category,
		item.Price, item.Quantity, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// DecrementStock takes one unit off the shelf, refusing to go below zero.
func (r *ItemRepository) DecrementStock(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE items SET quantity = quantity - 1 WHERE id = $1 AND quantity > 0`, id,
	)
	if err != nil {
		return fmt.Errorf("DecrementStock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DecrementStock: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("DecrementStock: %w", domain.ErrOutOfStock)
	}
	return nil
}

func collectItems(rows *sql.Rows) ([]domain.Item, error) {
	var items []domain.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("collectItems: scan: %w", err)
		}
		items = append(items, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collectItems: rows: %w", err)
	}
	return items, nil
}

func scanItem(s scanner) (*domain.Item, error) {
	var i domain.Item
	err := s.Scan(
		&i.ID, &i.StoreID, &i.Name, &i.Description, &i.Category,
		&i.Price, &i.Quantity, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
