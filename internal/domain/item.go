package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is catalog inventory owned by a seller's store. Quantity is stock:
// it is decremented only when a purchase completes, never at reserve time.
type Item struct {
	ID          uuid.UUID
	StoreID     uuid.UUID
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Quantity    int
	CreatedAt   time.Time
}
