package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Account is the unit of credit accounting. Balance and Version are only
// ever written together by the credit engine; Version implements the
// compare-and-swap that keeps per-account transactions serializable.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	StoreName    *string
	Address      *string
	Balance      decimal.Decimal
	Version      int64
	CreatedAt    time.Time
}
