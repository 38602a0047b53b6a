package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
// Decimal columns travel as text to keep full precision.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Append inserts transactions in one batch, skipping existing keys.
func (s *TransactionStore) Append(ctx context.Context, address string, txs []domain.Transaction) (inserted int, err error) {
	if address == "" {
		return 0, storage.ErrInvalidInput
	}
	for _, t := range txs {
		if t.ID == "" || t.Asset == "" {
			return 0, storage.ErrInvalidInput
		}
	}
	if len(txs) == 0 {
		return 0, nil
	}
	defer func(start time.Time) { observe("append_transactions", start, err) }(time.Now())

	query := `
		INSERT INTO wallet_transactions (
			address, tx_id, asset, kind, seq, symbol, quantity, value_usd, gas_usd, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9::numeric, $10)
		ON CONFLICT (address, tx_id, asset, kind) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(query,
			address,
			t.ID,
			t.Asset,
			string(t.Kind),
			t.Seq,
			t.Symbol,
			t.Quantity.String(),
			t.ValueUSD.String(),
			t.GasUSD.String(),
			t.Timestamp,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range txs {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert transaction: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// GetByAddress retrieves all transactions for address, ordered by timestamp then seq.
func (s *TransactionStore) GetByAddress(ctx context.Context, address string) (_ []domain.Transaction, err error) {
	defer func(start time.Time) { observe("get_transactions", start, err) }(time.Now())

	query := `
		SELECT tx_id, asset, symbol, kind, quantity::text, value_usd::text, gas_usd::text, timestamp, seq
		FROM wallet_transactions
		WHERE address = $1
		ORDER BY timestamp ASC, seq ASC, tx_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get transactions by address: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByTimeRange retrieves transactions within [start, end] (inclusive).
func (s *TransactionStore) GetByTimeRange(ctx context.Context, address string, start, end int64) (_ []domain.Transaction, err error) {
	defer func(t time.Time) { observe("get_transactions_range", t, err) }(time.Now())

	query := `
		SELECT tx_id, asset, symbol, kind, quantity::text, value_usd::text, gas_usd::text, timestamp, seq
		FROM wallet_transactions
		WHERE address = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, seq ASC, tx_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address, start, end)
	if err != nil {
		return nil, fmt.Errorf("get transactions by time range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans multiple rows into transactions.
func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction

	for rows.Next() {
		var (
			t                  domain.Transaction
			kind               string
			qty, value, gasUSD string
		)
		err := rows.Scan(
			&t.ID,
			&t.Asset,
			&t.Symbol,
			&kind,
			&qty,
			&value,
			&gasUSD,
			&t.Timestamp,
			&t.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		if t.Kind, err = domain.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if t.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("transaction %s quantity: %w", t.ID, err)
		}
		if t.ValueUSD, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("transaction %s value: %w", t.ID, err)
		}
		if t.GasUSD, err = decimal.NewFromString(gasUSD); err != nil {
			return nil, fmt.Errorf("transaction %s gas: %w", t.ID, err)
		}

		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
