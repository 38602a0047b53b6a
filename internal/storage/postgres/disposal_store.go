package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

// DisposalStore implements storage.DisposalStore using PostgreSQL.
type DisposalStore struct {
	pool *Pool
}

// NewDisposalStore creates a new DisposalStore.
func NewDisposalStore(pool *Pool) *DisposalStore {
	return &DisposalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DisposalStore = (*DisposalStore)(nil)

// Replace deletes the stored disposals of (address, method) and inserts the
// new set in one transaction. A repeated disposal id fails the whole batch.
func (s *DisposalStore) Replace(ctx context.Context, address string, method domain.AccountingMethod, disposals []domain.RealizedDisposal) (err error) {
	if address == "" || !method.IsValid() {
		return storage.ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(disposals))
	for _, d := range disposals {
		if d.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[d.ID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[d.ID] = struct{}{}
	}
	defer func(start time.Time) { observe("replace_disposals", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM realized_disposals WHERE address = $1 AND method = $2`,
		address, string(method),
	); err != nil {
		return fmt.Errorf("delete disposals: %w", err)
	}

	query := `
		INSERT INTO realized_disposals (
			address, method, disposal_id, tx_id, asset, symbol, kind,
			quantity, proceeds, cost_basis, gain_loss,
			holding_period_ms, long_term, disposed_at, gas_usd, lots
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8::numeric, $9::numeric, $10::numeric, $11::numeric,
			$12, $13, $14, $15::numeric, $16::jsonb
		)
	`

	for _, d := range disposals {
		lots, err := json.Marshal(d.Lots)
		if err != nil {
			return fmt.Errorf("encode lots of %s: %w", d.ID, err)
		}
		_, err = tx.Exec(ctx, query,
			address,
			string(method),
			d.ID,
			d.TxID,
			d.Asset,
			d.Symbol,
			string(d.Kind),
			d.Quantity.String(),
			d.Proceeds.String(),
			d.CostBasis.String(),
			d.GainLoss.String(),
			d.HoldingPeriodMs,
			d.LongTerm,
			d.DisposedAt,
			d.GasUSD.String(),
			string(lots),
		)
		if err != nil {
			return fmt.Errorf("insert disposal %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves disposals within [start, end] (inclusive), ordered by time.
func (s *DisposalStore) GetByTimeRange(ctx context.Context, address string, method domain.AccountingMethod, start, end int64) (_ []domain.RealizedDisposal, err error) {
	defer func(t time.Time) { observe("get_disposals", t, err) }(time.Now())

	query := `
		SELECT disposal_id, tx_id, asset, symbol, kind,
		       quantity::text, proceeds::text, cost_basis::text, gain_loss::text,
		       holding_period_ms, long_term, disposed_at, gas_usd::text, lots
		FROM realized_disposals
		WHERE address = $1 AND method = $2 AND disposed_at >= $3 AND disposed_at <= $4
		ORDER BY disposed_at ASC, disposal_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address, string(method), start, end)
	if err != nil {
		return nil, fmt.Errorf("get disposals by time range: %w", err)
	}
	defer rows.Close()

	return scanDisposals(rows)
}

// scanDisposals scans multiple rows into disposals.
func scanDisposals(rows pgx.Rows) ([]domain.RealizedDisposal, error) {
	var out []domain.RealizedDisposal

	for rows.Next() {
		var (
			d                          domain.RealizedDisposal
			kind                       string
			qty, proceeds, basis, gain string
			gasUSD                     string
			lots                       []byte
		)
		err := rows.Scan(
			&d.ID,
			&d.TxID,
			&d.Asset,
			&d.Symbol,
			&kind,
			&qty,
			&proceeds,
			&basis,
			&gain,
			&d.HoldingPeriodMs,
			&d.LongTerm,
			&d.DisposedAt,
			&gasUSD,
			&lots,
		)
		if err != nil {
			return nil, fmt.Errorf("scan disposal row: %w", err)
		}

		d.Kind = domain.Kind(kind)
		amounts := []struct {
			dst *decimal.Decimal
			src string
		}{
			{&d.Quantity, qty},
			{&d.Proceeds, proceeds},
			{&d.CostBasis, basis},
			{&d.GainLoss, gain},
			{&d.GasUSD, gasUSD},
		}
		for _, a := range amounts {
			if *a.dst, err = decimal.NewFromString(a.src); err != nil {
				return nil, fmt.Errorf("disposal %s amount: %w", d.ID, err)
			}
		}
		if err := json.Unmarshal(lots, &d.Lots); err != nil {
			return nil, fmt.Errorf("disposal %s lots: %w", d.ID, err)
		}

		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate disposal rows: %w", err)
	}

	return out, nil
}
