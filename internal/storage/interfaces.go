// Package storage defines persistence interfaces for the trade history,
// with in-memory and Postgres implementations in subpackages.
package storage

import (
	"context"

	"solana-copy-trader/internal/domain"
)

// TradeRecordStore persists the trade history: copied buys, exits, and
// abandonments. Records are append-only.
type TradeRecordStore interface {
	// Create inserts a trade record. Returns ErrDuplicateKey if a record
	// with the same trade ID exists, ErrInvalidInput on missing fields.
	Create(ctx context.Context, record *domain.TradeRecord) error

	// GetByTradeID returns the record with the given trade ID, or
	// ErrNotFound.
	GetByTradeID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// List returns the most recent records, newest first, up to limit.
	List(ctx context.Context, limit int) ([]*domain.TradeRecord, error)

	// ListByMint returns records for one token, newest first, up to limit.
	ListByMint(ctx context.Context, mint string, limit int) ([]*domain.TradeRecord, error)
}
