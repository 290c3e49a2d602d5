package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func record(id, mint, action string) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:   id,
		Action:    action,
		TokenMint: mint,
		Wallet:    "TrackedWallet",
		SOLAmount: 0.25,
		Venue:     domain.VenuePumpFun,
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestTradeRecordStoreCreateAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	rec := record("sig1", "MintA", domain.TradeActionBuy)
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.GetByTradeID(ctx, "sig1")
	require.NoError(t, err)
	assert.Equal(t, "MintA", got.TokenMint)

	// Returned record is a copy.
	got.TokenMint = "mutated"
	again, err := store.GetByTradeID(ctx, "sig1")
	require.NoError(t, err)
	assert.Equal(t, "MintA", again.TokenMint)
}

func TestTradeRecordStoreDuplicate(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, record("sig1", "MintA", domain.TradeActionBuy)))
	err := store.Create(ctx, record("sig1", "MintB", domain.TradeActionSell))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeRecordStoreInvalidInput(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Create(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Create(ctx, &domain.TradeRecord{TradeID: "x"}), storage.ErrInvalidInput)
}

func TestTradeRecordStoreNotFound(t *testing.T) {
	store := NewTradeRecordStore()
	_, err := store.GetByTradeID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeRecordStoreListNewestFirst(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mint := "MintA"
		if i%2 == 1 {
			mint = "MintB"
		}
		require.NoError(t, store.Create(ctx, record(fmt.Sprintf("sig%d", i), mint, domain.TradeActionBuy)))
	}

	all, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "sig4", all[0].TradeID)
	assert.Equal(t, "sig2", all[2].TradeID)

	byMint, err := store.ListByMint(ctx, "MintB", 10)
	require.NoError(t, err)
	require.Len(t, byMint, 2)
	assert.Equal(t, "sig3", byMint[0].TradeID)
	assert.Equal(t, "sig1", byMint[1].TradeID)
}
