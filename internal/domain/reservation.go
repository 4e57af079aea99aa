package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending  ReservationStatus = "pending"
	ReservationStatusAccepted ReservationStatus = "accepted"
	ReservationStatusDeclined ReservationStatus = "declined"
)

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusAccepted, ReservationStatusDeclined:
		return true
	}
	return false
}

// ReservationTTL is the fixed validity window of a pending reservation.
const ReservationTTL = 2 * time.Hour

// Reservation is a time-bounded hold on an item, paid for with a spend
// transaction. Only the owning store may move it out of pending; the buyer
// may delete it while pending. Accepted and declined are terminal.
type Reservation struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	AccountID  uuid.UUID
	StoreID    uuid.UUID
	Status     ReservationStatus
	Quantity   int
	PickupCode string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the reservation is past its validity window.
func (r Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
