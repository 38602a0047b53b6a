package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.Transaction // address -> composite key -> tx
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]map[string]domain.Transaction),
	}
}

// txKey generates a unique key for a transaction row.
func txKey(tx domain.Transaction) string {
	return fmt.Sprintf("%s|%s|%s", tx.ID, tx.Asset, tx.Kind)
}

// Append inserts new transactions, skipping existing keys.
func (s *TransactionStore) Append(_ context.Context, address string, txs []domain.Transaction) (int, error) {
	if address == "" {
		return 0, storage.ErrInvalidInput
	}
	for _, tx := range txs {
		if tx.ID == "" || tx.Asset == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.data[address]
	if !ok {
		rows = make(map[string]domain.Transaction)
		s.data[address] = rows
	}

	inserted := 0
	for _, tx := range txs {
		key := txKey(tx)
		if _, exists := rows[key]; exists {
			continue
		}
		rows[key] = tx
		inserted++
	}
	return inserted, nil
}

// GetByAddress retrieves all transactions for address, ordered by timestamp then seq.
func (s *TransactionStore) GetByAddress(_ context.Context, address string) ([]domain.Transaction, error) {
	return s.filter(address, func(domain.Transaction) bool { return true }), nil
}

// GetByTimeRange retrieves transactions within [start, end] (inclusive).
func (s *TransactionStore) GetByTimeRange(_ context.Context, address string, start, end int64) ([]domain.Transaction, error) {
	return s.filter(address, func(tx domain.Transaction) bool {
		return tx.Timestamp >= start && tx.Timestamp <= end
	}), nil
}

func (s *TransactionStore) filter(address string, keep func(domain.Transaction) bool) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Transaction
	for _, tx := range s.data[address] {
		if keep(tx) {
			result = append(result, tx)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		if result[i].Seq != result[j].Seq {
			return result[i].Seq < result[j].Seq
		}
		return txKey(result[i]) < txKey(result[j])
	})
	return result
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
