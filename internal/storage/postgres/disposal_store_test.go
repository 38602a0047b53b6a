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

func sampleDisposal(id string, at int64) domain.RealizedDisposal {
	return domain.RealizedDisposal{
		ID:              id,
		TxID:            "tx-" + id,
		Asset:           "SOL",
		Symbol:          "SOL",
		Kind:            domain.KindSell,
		Quantity:        decimal.NewFromInt(2),
		Proceeds:        decimal.RequireFromString("250.50"),
		CostBasis:       decimal.NewFromInt(200),
		GainLoss:        decimal.RequireFromString("50.50"),
		HoldingPeriodMs: 40 * domain.MillisPerDay,
		DisposedAt:      at,
		GasUSD:          decimal.RequireFromString("0.01"),
		Lots: []domain.LotConsumption{
			{LotID: "lot-a", Quantity: decimal.NewFromInt(2), CostBasis: decimal.NewFromInt(200), AcquiredAt: at - 40*domain.MillisPerDay},
		},
	}
}

func TestDisposalStore_ReplaceAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDisposalStore(pool)

	require.NoError(t, store.Replace(ctx, "w", domain.MethodFIFO, []domain.RealizedDisposal{
		sampleDisposal("d2", 2000),
		sampleDisposal("d1", 1000),
	}))

	got, err := store.GetByTimeRange(ctx, "w", domain.MethodFIFO, 0, 5000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].ID)
	assert.True(t, decimal.RequireFromString("50.50").Equal(got[0].GainLoss))
	require.Len(t, got[0].Lots, 1)
	assert.Equal(t, "lot-a", got[0].Lots[0].LotID)

	require.NoError(t, store.Replace(ctx, "w", domain.MethodFIFO, []domain.RealizedDisposal{sampleDisposal("d3", 3000)}))
	got, err = store.GetByTimeRange(ctx, "w", domain.MethodFIFO, 0, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d3", got[0].ID)
}

func TestDisposalStore_DuplicateInBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDisposalStore(pool)
	err := store.Replace(context.Background(), "w", domain.MethodLIFO, []domain.RealizedDisposal{
		sampleDisposal("d1", 1000),
		sampleDisposal("d1", 1000),
	})
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
}
