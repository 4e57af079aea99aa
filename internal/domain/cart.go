package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartEntry mirrors a live reservation into the buyer's cart. It is a
// derived view: after every sweep, each entry must still reference a
// non-expired reservation.
type CartEntry struct {
	AccountID     uuid.UUID
	ItemID        uuid.UUID
	ReservationID uuid.UUID
	ReservedAt    time.Time
}
