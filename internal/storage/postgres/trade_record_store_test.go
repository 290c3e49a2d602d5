package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
	pgstore "solana-copy-trader/internal/storage/postgres"
)

func testRecord(id, mint, action string, ts int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:    id,
		Action:     action,
		TokenMint:  mint,
		Wallet:     "TrackedWallet",
		SOLAmount:  0.25,
		TokenUnits: 1_000_000,
		Venue:      domain.VenuePumpFun,
		Reason:     "",
		Simulated:  true,
		Timestamp:  ts,
	}
}

func TestTradeRecordStorePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewTradeRecordStore(pool)
	ctx := context.Background()
	base := time.Now().UnixMilli()

	t.Run("create and get", func(t *testing.T) {
		rec := testRecord("sig-create", "MintA", domain.TradeActionBuy, base)
		require.NoError(t, store.Create(ctx, rec))

		got, err := store.GetByTradeID(ctx, "sig-create")
		require.NoError(t, err)
		assert.Equal(t, "MintA", got.TokenMint)
		assert.Equal(t, 0.25, got.SOLAmount)
		assert.Equal(t, int64(1_000_000), got.TokenUnits)
		assert.True(t, got.Simulated)
	})

	t.Run("duplicate trade id", func(t *testing.T) {
		rec := testRecord("sig-dup", "MintA", domain.TradeActionBuy, base)
		require.NoError(t, store.Create(ctx, rec))
		err := store.Create(ctx, rec)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("invalid input", func(t *testing.T) {
		assert.ErrorIs(t, store.Create(ctx, nil), storage.ErrInvalidInput)
		assert.ErrorIs(t, store.Create(ctx, &domain.TradeRecord{TradeID: "only-id"}), storage.ErrInvalidInput)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetByTradeID(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			mint := "MintList"
			if i%2 == 1 {
				mint = "MintOther"
			}
			rec := testRecord(fmt.Sprintf("sig-list-%d", i), mint, domain.TradeActionSell, base+int64(1000+i))
			require.NoError(t, store.Create(ctx, rec))
		}

		all, err := store.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "sig-list-3", all[0].TradeID)
		assert.Equal(t, "sig-list-2", all[1].TradeID)

		byMint, err := store.ListByMint(ctx, "MintList", 10)
		require.NoError(t, err)
		require.Len(t, byMint, 2)
		assert.Equal(t, "sig-list-2", byMint[0].TradeID)
		assert.Equal(t, "sig-list-0", byMint[1].TradeID)
	})
}
