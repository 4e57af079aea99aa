package domain

import (
	"time"

	"github.com/google/uuid"
)

// PickupWindow is how long a buyer has to collect a completed purchase.
const PickupWindow = 7 * 24 * time.Hour

type Purchase struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	AccountID uuid.UUID
	StoreID   uuid.UUID
	Quantity  int
	CreatedAt time.Time
	PickupBy  time.Time
}
