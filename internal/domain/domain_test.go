package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReservationExpired(t *testing.T) {
	expiry := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	res := Reservation{ExpiresAt: expiry}

	assert.False(t, res.Expired(expiry.Add(-time.Second)))
	assert.True(t, res.Expired(expiry), "boundary counts as expired")
	assert.True(t, res.Expired(expiry.Add(time.Second)))
}

func TestEntryTypeIsValid(t *testing.T) {
	assert.True(t, EntryTypeIssue.IsValid())
	assert.True(t, EntryTypeSpend.IsValid())
	assert.False(t, EntryType("TRANSFER").IsValid())
	assert.False(t, EntryType("").IsValid())
}

func TestLedgerEntrySignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("15")

	issue := LedgerEntry{EntryType: EntryTypeIssue, Amount: amount}
	assert.True(t, issue.SignedAmount().Equal(amount))

	spend := LedgerEntry{EntryType: EntryTypeSpend, Amount: amount}
	assert.True(t, spend.SignedAmount().Equal(amount.Neg()))
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleBuyer.IsValid())
	assert.True(t, RoleSeller.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("superuser").IsValid())
}

func TestReservationStatusIsValid(t *testing.T) {
	assert.True(t, ReservationStatusPending.IsValid())
	assert.True(t, ReservationStatusAccepted.IsValid())
	assert.True(t, ReservationStatusDeclined.IsValid())
	assert.False(t, ReservationStatus("cancelled").IsValid())
}
