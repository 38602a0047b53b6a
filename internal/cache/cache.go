// Package cache provides TTL caches for price history keyed by (asset, period).
//
// Entries are immutable once written and simply expire; callers receive
// copies, so no locking is needed beyond what each backend does internally.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wallet-analytics/internal/domain"
)

// DefaultTTL is the default lifetime of a cached price series.
const DefaultTTL = time.Hour

// PriceCache caches price series per (asset, period).
type PriceCache interface {
	// Get returns the cached series and true, or nil and false on miss or expiry.
	Get(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, bool)
	// Set stores a series for the cache TTL.
	Set(ctx context.Context, asset string, period domain.Period, series []domain.PricePoint) error
	// Invalidate drops every period cached for asset.
	Invalidate(ctx context.Context, asset string) error
}

// Key builds the cache key for (asset, period).
func Key(prefix, asset string, period domain.Period) string {
	return fmt.Sprintf("%sprices:%s:%s", prefix, strings.ToUpper(asset), period)
}

func assetPrefix(prefix, asset string) string {
	return fmt.Sprintf("%sprices:%s:", prefix, strings.ToUpper(asset))
}

// allPeriods lists the periods a key can carry.
var allPeriods = []domain.Period{
	domain.Period1D, domain.Period7D, domain.Period30D, domain.Period90D, domain.Period1Y,
}

func clone(series []domain.PricePoint) []domain.PricePoint {
	if series == nil {
		return nil
	}
	out := make([]domain.PricePoint, len(series))
	copy(out, series)
	return out
}

// entry is the wire form stored by distributed backends.
type entry struct {
	Asset    string              `json:"asset"`
	Period   domain.Period       `json:"period"`
	Points   []domain.PricePoint `json:"points"`
	StoredAt int64               `json:"stored_at"`
}

func encode(asset string, period domain.Period, series []domain.PricePoint) ([]byte, error) {
	data, err := json.Marshal(entry{
		Asset:    asset,
		Period:   period,
		Points:   series,
		StoredAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]domain.PricePoint, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return e.Points, nil
}
