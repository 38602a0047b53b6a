package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

func TestTransactionStore_AppendAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)

	txs := []domain.Transaction{
		{
			ID:        "sig-2",
			Asset:     "So11111111111111111111111111111111111111112",
			Symbol:    "SOL",
			Kind:      domain.KindSell,
			Quantity:  decimal.RequireFromString("1.123456789"),
			ValueUSD:  decimal.RequireFromString("168.52"),
			GasUSD:    decimal.RequireFromString("0.000875"),
			Timestamp: 1700000002000,
			Seq:       1,
		},
		{
			ID:        "sig-1",
			Asset:     "So11111111111111111111111111111111111111112",
			Symbol:    "SOL",
			Kind:      domain.KindBuy,
			Quantity:  decimal.NewFromInt(3),
			ValueUSD:  decimal.NewFromInt(300),
			Timestamp: 1700000001000,
			Seq:       0,
		},
	}

	n, err := store.Append(ctx, "wallet-1", txs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.Append(ctx, "wallet-1", txs[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, n, "existing rows are skipped")

	got, err := store.GetByAddress(ctx, "wallet-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sig-1", got[0].ID)
	assert.Equal(t, domain.KindSell, got[1].Kind)
	assert.True(t, txs[0].Quantity.Equal(got[1].Quantity), "decimal precision survives")
	assert.True(t, txs[0].GasUSD.Equal(got[1].GasUSD))

	ranged, err := store.GetByTimeRange(ctx, "wallet-1", 1700000002000, 1700000009000)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "sig-2", ranged[0].ID)
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)

	_, err := store.Append(context.Background(), "", []domain.Transaction{{ID: "x", Asset: "SOL"}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}
