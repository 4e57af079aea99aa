package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.CartEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id, item_id, reservation_id, reserved_at
		FROM cart_entries WHERE account_id = $1 ORDER BY reserved_at`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var entries []domain.CartEntry
	for rows.Next() {
		var e domain.CartEntry
		if err := rows.Scan(&e.AccountID, &e.ItemID, &e.ReservationID, &e.ReservedAt); err != nil {
			return nil, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return entries, nil
}

func (r *CartRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.CartEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO cart_entries (account_id, item_id, reservation_id, reserved_at)
		VALUES ($1, $2, $3, $4)`,
		entry.AccountID, entry.ItemID, entry.ReservationID, entry.ReservedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("Create: %w", domain.ErrAlreadyReserved)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CartRepository) DeleteByReservation(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM cart_entries WHERE reservation_id = $1`, reservationID,
	)
	if err != nil {
		return fmt.Errorf("DeleteByReservation: %w", err)
	}
	return nil
}

// DeleteExpired removes cart entries whose pending reservation window has
// passed and returns the item ids that were dropped. Accepted and declined
// reservations keep their cart entries; entries written after the cutoff are
// untouched, so a sweep can never eat a reservation created mid-pass.
func (r *CartRepository) DeleteExpired(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, cutoff time.Time) ([]uuid.UUID, error) {
	query := `DELETE FROM cart_entries ce
		USING reservations res
		WHERE res.id = ce.reservation_id
		  AND res.status = 'pending'
		  AND ce.reserved_at <= $1`
	args := []any{cutoff}
	if accountID != uuid.Nil {
		query += ` AND ce.account_id = $2`
		args = append(args, accountID)
	}
	query += ` RETURNING ce.item_id`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("DeleteExpired: %w", err)
	}
	defer rows.Close()

	var itemIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("DeleteExpired: scan: %w", err)
		}
		itemIDs = append(itemIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DeleteExpired: rows: %w", err)
	}
	return itemIDs, nil
}
