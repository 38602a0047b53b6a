package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

// PriceSeriesStore is an in-memory implementation of storage.PriceSeriesStore.
type PriceSeriesStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]float64 // asset -> timestamp -> price
}

// NewPriceSeriesStore creates a new in-memory price series store.
func NewPriceSeriesStore() *PriceSeriesStore {
	return &PriceSeriesStore{
		data: make(map[string]map[int64]float64),
	}
}

// Upsert writes points, overwriting existing timestamps.
func (s *PriceSeriesStore) Upsert(_ context.Context, asset string, points []domain.PricePoint) error {
	if asset == "" {
		return storage.ErrInvalidInput
	}
	key := strings.ToUpper(asset)

	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.data[key]
	if !ok {
		series = make(map[int64]float64, len(points))
		s.data[key] = series
	}
	for _, p := range points {
		series[p.Timestamp] = p.Price
	}
	return nil
}

// GetRange retrieves points within [start, end] (inclusive), ascending.
func (s *PriceSeriesStore) GetRange(_ context.Context, asset string, start, end int64) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PricePoint
	for ts, price := range s.data[strings.ToUpper(asset)] {
		if ts >= start && ts <= end {
			result = append(result, domain.PricePoint{Timestamp: ts, Price: price})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp < result[j].Timestamp })
	return result, nil
}

var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)
