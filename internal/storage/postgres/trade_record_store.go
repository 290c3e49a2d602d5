// Package postgres provides Postgres-backed storage implementations.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// TradeRecordStore is a Postgres implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	pool *Pool
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// NewTradeRecordStore creates a Postgres-backed trade record store.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

const tradeRecordColumns = `trade_id, action, token_mint, wallet, sol_amount, token_units, venue, reason, pnl_sol, simulated, ts`

// Create inserts a trade record.
func (s *TradeRecordStore) Create(ctx context.Context, record *domain.TradeRecord) error {
	if record == nil || record.TradeID == "" || record.Action == "" || record.TokenMint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_records (` + tradeRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		record.TradeID,
		record.Action,
		record.TokenMint,
		record.Wallet,
		record.SOLAmount,
		record.TokenUnits,
		record.Venue,
		record.Reason,
		record.PnLSOL,
		record.Simulated,
		record.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// GetByTradeID returns the record with the given trade ID.
func (s *TradeRecordStore) GetByTradeID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + tradeRecordColumns + ` FROM trade_records WHERE trade_id = $1`

	record, err := s.scanRow(s.pool.QueryRow(ctx, query, tradeID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record: %w", err)
	}
	return record, nil
}

// List returns the most recent records, newest first.
func (s *TradeRecordStore) List(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + tradeRecordColumns + ` FROM trade_records ORDER BY ts DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list trade records: %w", err)
	}
	defer rows.Close()

	return s.scanRows(rows)
}

// ListByMint returns records for one token, newest first.
func (s *TradeRecordStore) ListByMint(ctx context.Context, mint string, limit int) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + tradeRecordColumns + ` FROM trade_records WHERE token_mint = $1 ORDER BY ts DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, mint, limit)
	if err != nil {
		return nil, fmt.Errorf("list trade records by mint: %w", err)
	}
	defer rows.Close()

	return s.scanRows(rows)
}

func (s *TradeRecordStore) scanRow(row pgx.Row) (*domain.TradeRecord, error) {
	var record domain.TradeRecord
	err := row.Scan(
		&record.TradeID,
		&record.Action,
		&record.TokenMint,
		&record.Wallet,
		&record.SOLAmount,
		&record.TokenUnits,
		&record.Venue,
		&record.Reason,
		&record.PnLSOL,
		&record.Simulated,
		&record.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *TradeRecordStore) scanRows(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var records []*domain.TradeRecord
	for rows.Next() {
		record, err := s.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return records, nil
}
