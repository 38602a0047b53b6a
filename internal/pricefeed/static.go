package pricefeed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wallet-analytics/internal/domain"
)

// Static serves fixed series from memory. Used offline and in tests.
type Static struct {
	mu     sync.RWMutex
	series map[string][]domain.PricePoint
}

var (
	_ Source = (*Static)(nil)
	_ Quoter = (*Static)(nil)
)

// NewStatic creates a Static source from series keyed by symbol.
func NewStatic(series map[string][]domain.PricePoint) *Static {
	s := &Static{series: make(map[string][]domain.PricePoint, len(series))}
	for k, v := range series {
		s.Put(k, v)
	}
	return s
}

// Put replaces the series for a symbol.
func (s *Static) Put(symbol string, series []domain.PricePoint) {
	cp := make([]domain.PricePoint, len(series))
	copy(cp, series)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Timestamp < cp[j].Timestamp })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[strings.ToUpper(symbol)] = cp
}

// History returns the stored series trimmed to the period, ending at its last point.
func (s *Static) History(_ context.Context, asset string, period domain.Period) ([]domain.PricePoint, error) {
	s.mu.RLock()
	series, ok := s.series[strings.ToUpper(asset)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("static: %w: %s", domain.ErrInsufficientData, asset)
	}
	if len(series) == 0 || !period.IsValid() {
		return []domain.PricePoint{}, nil
	}

	cutoff := series[len(series)-1].Timestamp - period.Duration().Milliseconds()
	out := make([]domain.PricePoint, 0, len(series))
	for _, p := range series {
		if p.Timestamp >= cutoff {
			out = append(out, p)
		}
	}
	return out, nil
}

// Spot returns the last price of each known symbol.
func (s *Static) Spot(_ context.Context, symbols []string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		key := strings.ToUpper(sym)
		if series := s.series[key]; len(series) > 0 {
			out[key] = series[len(series)-1].Price
		}
	}
	return out, nil
}
