package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/repository"
	"github.com/ccournoyer/firesale-backend/internal/service"
	"github.com/ccournoyer/firesale-backend/internal/testutil"
)

func setupItemService(t *testing.T, db *sql.DB) *service.ItemService {
	t.Helper()
	return service.NewItemService(
		setupCreditService(t, db, clock.NewSystem()),
		repository.NewItemRepository(db),
		db,
		clock.NewSystem(),
		dec("25"),
	)
}

func TestPostItem_ChargesFee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupItemService(t, db)
	ctx := context.Background()

	seller := testutil.SeedAccount(t, db, domain.RoleSeller, dec("100"))

	item, err := svc.PostItem(ctx, seller.ID, service.PostItemInput{
		Name:     "Vintage Lamp",
		Category: "furniture",
		Price:    dec("40"),
		Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, seller.ID, item.StoreID)
	assert.Equal(t, 2, item.Quantity)

	assert.True(t, testutil.GetAccountBalance(t, db, seller.ID).Equal(dec("75")))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, seller.ID))

	stored, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vintage Lamp", stored.Name)
}

func TestPostItem_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupItemService(t, db)
	ctx := context.Background()

	seller := testutil.SeedAccount(t, db, domain.RoleSeller, dec("24"))

	_, err := svc.PostItem(ctx, seller.ID, service.PostItemInput{
		Name:     "Vintage Lamp",
		Price:    dec("40"),
		Quantity: 1,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// the unpaid fee means no listing
	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.True(t, testutil.GetAccountBalance(t, db, seller.ID).Equal(dec("24")))
}

func TestPostItem_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupItemService(t, db)
	ctx := context.Background()

	seller := testutil.SeedAccount(t, db, domain.RoleSeller, dec("100"))

	tests := []struct {
		name  string
		input service.PostItemInput
	}{
		{
			name:  "empty name",
			input: service.PostItemInput{Price: dec("10"), Quantity: 1},
		},
		{
			name:  "zero quantity",
			input: service.PostItemInput{Name: "Lamp", Price: dec("10"), Quantity: 0},
		},
		{
			name:  "negative price",
			input: service.PostItemInput{Name: "Lamp", Price: dec("-1"), Quantity: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PostItem(ctx, seller.ID, tc.input)
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}

	assert.True(t, testutil.GetAccountBalance(t, db, seller.ID).Equal(dec("100")))
}
