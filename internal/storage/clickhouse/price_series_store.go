package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

// PriceSeriesStore implements storage.PriceSeriesStore using ClickHouse.
// The table is a ReplacingMergeTree, so reads use FINAL to collapse rewrites.
type PriceSeriesStore struct {
	conn *Conn
}

// NewPriceSeriesStore creates a new PriceSeriesStore.
func NewPriceSeriesStore(conn *Conn) *PriceSeriesStore {
	return &PriceSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

// Upsert writes points in one batch.
func (s *PriceSeriesStore) Upsert(ctx context.Context, asset string, points []domain.PricePoint) (err error) {
	if asset == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("upsert_prices", start, err) }(time.Now())

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO price_series (asset, timestamp_ms, price)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	key := strings.ToUpper(asset)
	for _, p := range points {
		if p.Timestamp < 0 {
			return storage.ErrInvalidInput
		}
		if err := batch.Append(key, uint64(p.Timestamp), p.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetRange retrieves points within [start, end] (inclusive), ascending.
func (s *PriceSeriesStore) GetRange(ctx context.Context, asset string, start, end int64) (_ []domain.PricePoint, err error) {
	defer func(t time.Time) { observe("get_prices", t, err) }(time.Now())

	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT timestamp_ms, price
		FROM price_series FINAL
		WHERE asset = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`, strings.ToUpper(asset), uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query price range: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var ts uint64
		var price float64
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		points = append(points, domain.PricePoint{Timestamp: int64(ts), Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}
	return points, nil
}
