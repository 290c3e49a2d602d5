// Package memory provides in-memory storage implementations, used in
// simulation mode and in tests.
package memory

import (
	"context"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// TradeRecordStore is an in-memory implementation of
// storage.TradeRecordStore.
type TradeRecordStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.TradeRecord
	ordered []*domain.TradeRecord // insertion order, oldest first
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// NewTradeRecordStore creates an empty in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		byID: make(map[string]*domain.TradeRecord),
	}
}

// Create inserts a trade record.
func (s *TradeRecordStore) Create(_ context.Context, record *domain.TradeRecord) error {
	if record == nil || record.TradeID == "" || record.Action == "" || record.TokenMint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := *record
	s.byID[record.TradeID] = &stored
	s.ordered = append(s.ordered, &stored)
	return nil
}

// GetByTradeID returns the record with the given trade ID.
func (s *TradeRecordStore) GetByTradeID(_ context.Context, tradeID string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[tradeID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	result := *record
	return &result, nil
}

// List returns the most recent records, newest first.
func (s *TradeRecordStore) List(_ context.Context, limit int) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(*domain.TradeRecord) bool { return true }), nil
}

// ListByMint returns records for one token, newest first.
func (s *TradeRecordStore) ListByMint(_ context.Context, mint string, limit int) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(r *domain.TradeRecord) bool { return r.TokenMint == mint }), nil
}

func (s *TradeRecordStore) collect(limit int, match func(*domain.TradeRecord) bool) []*domain.TradeRecord {
	result := make([]*domain.TradeRecord, 0, limit)
	for i := len(s.ordered) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if match(s.ordered[i]) {
			record := *s.ordered[i]
			result = append(result, &record)
		}
	}
	return result
}
