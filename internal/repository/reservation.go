package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

const reservationColumns = `id, item_id, account_id, store_id, status, quantity,
	pickup_code, created_at, expires_at`

type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id,
	)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrReservationNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return res, nil
}

// GetForUpdate locks the reservation row so a status transition cannot race
// another transition or the expiry sweep.
func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id,
	)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrReservationNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		WHERE account_id = $1 ORDER BY created_at DESC`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *ReservationRepository) ListByStore(ctx context.Context, storeID uuid.UUID, status domain.ReservationStatus) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE store_id = $1`
	args := []any{storeID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListByStore: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *ReservationRepository) Create(ctx context.Context, tx *sql.Tx, res *domain.Reservation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (
			id, item_id, account_id, store_id, status, quantity,
			pickup_code, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ID, res.ItemID, res.AccountID, res.StoreID, res.Status, res.Quantity,
		res.PickupCode, res.CreatedAt, res.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.ReservationStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = $1 WHERE id = $2`, status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrReservationNotFound)
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// DeleteExpiredPending removes pending reservations past their deadline for
// one account, or for all accounts when accountID is uuid.Nil. Terminal
// reservations are never touched.
func (r *ReservationRepository) DeleteExpiredPending(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, now time.Time) (int64, error) {
	query := `DELETE FROM reservations WHERE status = $1 AND expires_at <= $2`
	args := []any{domain.ReservationStatusPending, now}
	if accountID != uuid.Nil {
		query += ` AND account_id = $3`
		args = append(args, accountID)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("DeleteExpiredPending: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteExpiredPending: rows affected: %w", err)
	}
	return n, nil
}

func collectReservations(rows *sql.Rows) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("collectReservations: scan: %w", err)
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collectReservations: rows: %w", err)
	}
	return reservations, nil
}

func scanReservation(s scanner) (*domain.Reservation, error) {
	var res domain.Reservation
	err := s.Scan(
		&res.ID, &res.ItemID, &res.AccountID, &res.StoreID, &res.Status,
		&res.Quantity, &res.PickupCode, &res.CreatedAt, &res.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
