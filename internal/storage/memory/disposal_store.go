package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

// DisposalStore is an in-memory implementation of storage.DisposalStore.
type DisposalStore struct {
	mu   sync.RWMutex
	data map[disposalSet][]domain.RealizedDisposal
}

type disposalSet struct {
	address string
	method  domain.AccountingMethod
}

// NewDisposalStore creates a new in-memory disposal store.
func NewDisposalStore() *DisposalStore {
	return &DisposalStore{
		data: make(map[disposalSet][]domain.RealizedDisposal),
	}
}

// Replace swaps the stored disposals of (address, method).
// Returns ErrDuplicateKey if the batch repeats a disposal id.
func (s *DisposalStore) Replace(_ context.Context, address string, method domain.AccountingMethod, disposals []domain.RealizedDisposal) error {
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

	cp := make([]domain.RealizedDisposal, len(disposals))
	copy(cp, disposals)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].DisposedAt < cp[j].DisposedAt })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[disposalSet{address, method}] = cp
	return nil
}

// GetByTimeRange retrieves disposals within [start, end] (inclusive), ordered by time.
func (s *DisposalStore) GetByTimeRange(_ context.Context, address string, method domain.AccountingMethod, start, end int64) ([]domain.RealizedDisposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.RealizedDisposal
	for _, d := range s.data[disposalSet{address, method}] {
		if d.DisposedAt >= start && d.DisposedAt <= end {
			result = append(result, d)
		}
	}
	return result, nil
}

var _ storage.DisposalStore = (*DisposalStore)(nil)
