package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		err        error
		wantCode   string
		wantStatus int
	}{
		{domain.ErrAccountNotFound, "ACCOUNT_NOT_FOUND", http.StatusNotFound},
		{domain.ErrItemNotFound, "ITEM_NOT_FOUND", http.StatusNotFound},
		{domain.ErrReservationNotFound, "RESERVATION_NOT_FOUND", http.StatusNotFound},
		{domain.ErrInsufficientBalance, "INSUFFICIENT_BALANCE", http.StatusUnprocessableEntity},
		{domain.ErrInvalidAmount, "INVALID_AMOUNT", http.StatusUnprocessableEntity},
		{domain.ErrTransactionConflict, "TRANSACTION_CONFLICT", http.StatusConflict},
		{domain.ErrReservationExpired, "RESERVATION_EXPIRED", http.StatusConflict},
		{domain.ErrReservationNotPending, "RESERVATION_NOT_PENDING", http.StatusConflict},
		{domain.ErrNotAccepted, "RESERVATION_NOT_ACCEPTED", http.StatusConflict},
		{domain.ErrNotStoreOwner, "FORBIDDEN", http.StatusForbidden},
		{domain.ErrNotReservationOwner, "FORBIDDEN", http.StatusForbidden},
		{domain.ErrAlreadyReserved, "ALREADY_RESERVED", http.StatusConflict},
		{domain.ErrOutOfStock, "OUT_OF_STOCK", http.StatusConflict},
		{domain.ErrEmailTaken, "EMAIL_TAKEN", http.StatusConflict},
		{errors.New("database on fire"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.wantCode+"/"+tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()

			// services wrap sentinels, mapping must see through that
			RespondDomainError(rec, fmt.Errorf("Reserve: %w", tc.err))

			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestSignupRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  signupRequest
		ok   bool
	}{
		{
			name: "valid buyer",
			req:  signupRequest{Email: "a@b.com", Password: "longenough", Role: "buyer"},
			ok:   true,
		},
		{
			name: "valid seller",
			req:  signupRequest{Email: "a@b.com", Password: "longenough", Role: "seller", StoreName: "Shop"},
			ok:   true,
		},
		{
			name: "bad email",
			req:  signupRequest{Email: "nope", Password: "longenough", Role: "buyer"},
		},
		{
			name: "short password",
			req:  signupRequest{Email: "a@b.com", Password: "short", Role: "buyer"},
		},
		{
			name: "admin role not allowed",
			req:  signupRequest{Email: "a@b.com", Password: "longenough", Role: "admin"},
		},
		{
			name: "seller without store name",
			req:  signupRequest{Email: "a@b.com", Password: "longenough", Role: "seller"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := tc.req.validate()
			assert.Equal(t, tc.ok, ok)
		})
	}
}
