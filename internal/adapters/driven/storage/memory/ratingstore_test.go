package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

func TestRatingStore_UpsertReportsCreation(t *testing.T) {
	store := NewRatingStore()
	ctx := context.Background()

	created, err := store.Upsert(ctx, domain.Rating{UserID: "u1", LinkID: "l1", Value: 3})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Upsert(ctx, domain.Rating{UserID: "u1", LinkID: "l1", Value: 5})
	require.NoError(t, err)
	assert.False(t, created)

	r, err := store.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, r.Value)
}

func TestRatingStore_GetMissing(t *testing.T) {
	store := NewRatingStore()
	_, err := store.Get(context.Background(), "u1", "l1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRatingStore_Lists(t *testing.T) {
	store := NewRatingStore()
	ctx := context.Background()

	for _, r := range []domain.Rating{
		{UserID: "u2", LinkID: "l1", Value: 5},
		{UserID: "u1", LinkID: "l1", Value: 3},
		{UserID: "u1", LinkID: "l2", Value: 1},
	} {
		_, err := store.Upsert(ctx, r)
		require.NoError(t, err)
	}

	byDoc, err := store.ListByDocument(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, byDoc, 2)
	assert.Equal(t, "u1", byDoc[0].UserID)

	byUser, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "l1", byUser[0].LinkID)

	none, err := store.ListByDocument(ctx, "l3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPointsLedger(t *testing.T) {
	ledger := NewPointsLedger()
	ctx := context.Background()

	balance, err := ledger.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	balance, err = ledger.Grant(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	balance, err = ledger.Grant(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 110, balance)
}
