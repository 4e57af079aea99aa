package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeIssue EntryType = "ISSUE"
	EntryTypeSpend EntryType = "SPEND"
)

func (t EntryType) IsValid() bool {
	return t == EntryTypeIssue || t == EntryTypeSpend
}

// LedgerEntry is an immutable record of one balance change. Entries are
// append-only: the account balance must always equal the sum of signed
// amounts, where ISSUE counts positive and SPEND negative.
type LedgerEntry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	EntryType     EntryType
	Amount        decimal.Decimal
	Reason        string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}

// SignedAmount returns the amount with the sign implied by the entry type.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.EntryType == EntryTypeSpend {
		return e.Amount.Neg()
	}
	return e.Amount
}
