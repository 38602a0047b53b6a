package storage

import (
	"context"

	"wallet-analytics/internal/domain"
)

// TransactionStore archives typed wallet transactions fetched from the chain.
// The archive holds collaborator data only; lots are always rebuilt by replay.
type TransactionStore interface {
	// Append inserts transactions for address, skipping rows whose
	// (tx id, asset, kind) already exists. Returns the number inserted.
	Append(ctx context.Context, address string, txs []domain.Transaction) (int, error)

	// GetByAddress retrieves all transactions for address, ordered by timestamp then seq.
	GetByAddress(ctx context.Context, address string) ([]domain.Transaction, error)

	// GetByTimeRange retrieves transactions for address within [start, end] (inclusive, Unix ms).
	GetByTimeRange(ctx context.Context, address string, start, end int64) ([]domain.Transaction, error)
}

// DisposalStore keeps the most recently computed disposals per wallet and method.
type DisposalStore interface {
	// Replace atomically swaps the stored disposals of (address, method).
	Replace(ctx context.Context, address string, method domain.AccountingMethod, disposals []domain.RealizedDisposal) error

	// GetByTimeRange retrieves disposals with DisposedAt within [start, end], ordered by time.
	GetByTimeRange(ctx context.Context, address string, method domain.AccountingMethod, start, end int64) ([]domain.RealizedDisposal, error)
}

// PriceSeriesStore archives fetched price points per asset.
type PriceSeriesStore interface {
	// Upsert writes points; an existing (asset, timestamp) is overwritten.
	Upsert(ctx context.Context, asset string, points []domain.PricePoint) error

	// GetRange retrieves points within [start, end] (inclusive), ascending.
	GetRange(ctx context.Context, asset string, start, end int64) ([]domain.PricePoint, error)
}
