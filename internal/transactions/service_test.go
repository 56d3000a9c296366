package transactions

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func TestHistoryNewestFirstAndScopedToUser(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)

	line := models.TransactionLine{
		ProductID:          3,
		Title:              "Lamp",
		Thumbnail:          "t.png",
		Price:              decimal.RequireFromString("100.00"),
		DiscountPercentage: 20,
		DiscountedPrice:    decimal.RequireFromString("80.00"),
		Quantity:           2,
		Subtotal:           decimal.RequireFromString("160.00"),
	}
	for _, uid := range []uint{1, 1, 2} {
		require.NoError(t, repo.Create(context.Background(), &models.Transaction{
			UserID: uid,
			Items:  []models.TransactionLine{line},
			Total:  decimal.RequireFromString("160.00"),
		}))
	}

	history, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Greater(t, history[0].ID, history[1].ID)

	got := history[0]
	assert.EqualValues(t, 1, got.UserID)
	assert.Equal(t, 160.0, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 80.0, got.Items[0].DiscountedPrice)
	assert.Equal(t, "Lamp", got.Items[0].Title)
}

func TestHistoryEmpty(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)

	history, err := svc.History(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
