package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
	ErrTransactionConflict = errors.New("transaction conflict, retries exhausted")

	ErrReservationExpired    = errors.New("reservation expired")
	ErrReservationNotPending = errors.New("reservation already resolved")
	ErrNotStoreOwner         = errors.New("reservation belongs to another store")
	ErrNotReservationOwner   = errors.New("reservation belongs to another account")
	ErrAlreadyReserved       = errors.New("item already reserved by this account")
	ErrOutOfStock            = errors.New("item out of stock")
	ErrNotAccepted           = errors.New("reservation not accepted")

	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidRequest = errors.New("invalid request")
)
