package ledger

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/gateway"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/storage/memory"
)

const testMint = "Mint11111111111111111111111111111111111111"

// fakeGateway scripts quote and sell behavior.
type fakeGateway struct {
	quoteLamports int64
	quoteErr      error
	sellFailures  int // fail this many sells before succeeding
	sellCalls     int
	sellErr       error
}

func (f *fakeGateway) Buy(context.Context, string, int64, string) (*gateway.TradeResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeGateway) Sell(_ context.Context, mint string, tokens int64, _ string) (*gateway.TradeResult, error) {
	f.sellCalls++
	if f.sellErr != nil {
		return nil, f.sellErr
	}
	if f.sellCalls <= f.sellFailures {
		return nil, errors.New("transient sell failure")
	}
	return &gateway.TradeResult{
		Signature:        "sig-sell",
		LamportsReceived: f.quoteLamports,
		TokenAmount:      tokens,
	}, nil
}

func (f *fakeGateway) SellQuote(context.Context, string, int64) (int64, error) {
	return f.quoteLamports, f.quoteErr
}

func testLedger(gw gateway.Gateway, store *memory.TradeRecordStore, opts Options) *Ledger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	// Pass a true nil interface when no store is supplied; a typed nil
	// *memory.TradeRecordStore would defeat the ledger's nil check.
	var records storage.TradeRecordStore
	if store != nil {
		records = store
	}
	return New(gw, records, domain.NewTradeStats(), logrus.NewEntry(log), opts)
}

func buyEvent() *domain.SwapEvent {
	return &domain.SwapEvent{
		Signature:      "sig-signal",
		Wallet:         "TrackedWallet",
		Direction:      domain.DirectionBuy,
		TokenMint:      testMint,
		LamportsAmount: 500_000_000,
		TokenAmount:    2_000_000,
		Venue:          domain.VenuePumpFun,
	}
}

func buyResult(lamports, tokens int64) *gateway.TradeResult {
	return &gateway.TradeResult{Signature: "sig-ourbuy", LamportsSpent: lamports, TokenAmount: tokens}
}

func TestRecordBuyOpensAndAverages(t *testing.T) {
	store := memory.NewTradeRecordStore()
	l := testLedger(&fakeGateway{}, store, Options{MaxPositions: 2})
	ctx := context.Background()

	l.RecordBuy(ctx, buyEvent(), buyResult(100_000_000, 1_000_000))
	assert.True(t, l.HasPosition(testMint))
	assert.Equal(t, 1, l.OpenCount())
	assert.Equal(t, int64(1_000_000), l.TokensHeld(testMint))

	// Averaging in does not open a second position.
	second := buyResult(50_000_000, 400_000)
	second.Signature = "sig-ourbuy-2"
	l.RecordBuy(ctx, buyEvent(), second)
	assert.Equal(t, 1, l.OpenCount())
	assert.Equal(t, int64(1_400_000), l.TokensHeld(testMint))

	positions := l.Positions()
	require.Len(t, positions, 1)
	assert.InDelta(t, 0.15, positions[0].EntrySOL, 1e-9)

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, domain.TradeActionBuy, records[0].Action)
}

func TestCanOpenMore(t *testing.T) {
	l := testLedger(&fakeGateway{}, nil, Options{MaxPositions: 1})
	assert.True(t, l.CanOpenMore())
	l.RecordBuy(context.Background(), buyEvent(), buyResult(100_000_000, 1_000_000))
	assert.False(t, l.CanOpenMore())
}

func TestExitPriorityAbandonBeatsTakeProfit(t *testing.T) {
	rules := ExitRules{TakeProfitPct: 50, AbandonSOL: 0.005}
	p := &domain.Position{
		TokenMint:       testMint,
		EntrySOL:        0.001,
		CurrentValueSOL: 0.004, // +300% but worthless in absolute terms
		HighestValueSOL: 0.004,
		EntryTime:       time.Now(),
	}
	assert.Equal(t, domain.ExitReasonAbandoned, rules.Evaluate(p, time.Now()))
}

func TestExitRules(t *testing.T) {
	now := time.Now()
	base := domain.Position{
		TokenMint: testMint,
		EntrySOL:  0.1,
		EntryTime: now.Add(-10 * time.Minute),
	}

	t.Run("take profit", func(t *testing.T) {
		p := base
		p.CurrentValueSOL, p.HighestValueSOL = 0.2, 0.2
		rules := ExitRules{TakeProfitPct: 100}
		assert.Equal(t, domain.ExitReasonTakeProfit, rules.Evaluate(&p, now))

		rules.TakeProfitPct = 150
		assert.Equal(t, "", rules.Evaluate(&p, now))
	})

	t.Run("time limit", func(t *testing.T) {
		p := base
		p.CurrentValueSOL = 0.1
		rules := ExitRules{TimeLimitMinutes: 5}
		assert.Equal(t, domain.ExitReasonTimeLimit, rules.Evaluate(&p, now))

		rules.TimeLimitMinutes = 30
		assert.Equal(t, "", rules.Evaluate(&p, now))
	})

	t.Run("trailing stop requires prior profit", func(t *testing.T) {
		rules := ExitRules{TrailingStopPct: 20}

		// Peaked at 2x, now down 50% from peak: triggers.
		p := base
		p.HighestValueSOL, p.CurrentValueSOL = 0.2, 0.1
		assert.Equal(t, domain.ExitReasonTrailingStop, rules.Evaluate(&p, now))

		// Never profitable: a straight drawdown does not trigger.
		p = base
		p.HighestValueSOL, p.CurrentValueSOL = 0.1, 0.05
		assert.Equal(t, "", rules.Evaluate(&p, now))
	})

	t.Run("disabled rules hold", func(t *testing.T) {
		p := base
		p.CurrentValueSOL, p.HighestValueSOL = 0.5, 0.5
		assert.Equal(t, "", ExitRules{}.Evaluate(&p, now))
	})
}

func TestCheckOneRevaluesAndSells(t *testing.T) {
	gw := &fakeGateway{quoteLamports: 250_000_000}
	store := memory.NewTradeRecordStore()
	l := testLedger(gw, store, Options{Rules: ExitRules{TakeProfitPct: 100}})
	ctx := context.Background()

	l.RecordBuy(ctx, buyEvent(), buyResult(100_000_000, 1_000_000))
	l.checkOne(ctx, testMint)

	assert.False(t, l.HasPosition(testMint))
	stats := l.stats.Snapshot()
	assert.InDelta(t, 0.15, stats.RealizedPnL, 1e-9)
	assert.InDelta(t, 0.25, stats.SOLReceived, 1e-9)

	records, err := store.ListByMint(ctx, testMint, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.TradeActionSell, records[0].Action)
	assert.Equal(t, domain.ExitReasonTakeProfit, records[0].Reason)
	assert.InDelta(t, 0.15, records[0].PnLSOL, 1e-9)
}

func TestQuoteFailureKeepsLastValue(t *testing.T) {
	gw := &fakeGateway{quoteErr: errors.New("router down")}
	l := testLedger(gw, nil, Options{Rules: ExitRules{AbandonSOL: 0.005}})
	ctx := context.Background()

	l.RecordBuy(ctx, buyEvent(), buyResult(100_000_000, 1_000_000))
	l.checkOne(ctx, testMint)

	// Value stayed at entry, so the abandon rule did not fire.
	assert.True(t, l.HasPosition(testMint))
	positions := l.Positions()
	assert.InDelta(t, 0.1, positions[0].CurrentValueSOL, 1e-9)
	assert.True(t, positions[0].LastQuoteTime.IsZero())
}

func TestAbandonFreesSlotWithZeroProceeds(t *testing.T) {
	gw := &fakeGateway{quoteLamports: 1_000_000} // 0.001 SOL resale value
	store := memory.NewTradeRecordStore()
	l := testLedger(gw, store, Options{Rules: ExitRules{AbandonSOL: 0.005}})
	ctx := context.Background()

	l.RecordBuy(ctx, buyEvent(), buyResult(100_000_000, 1_000_000))
	l.checkOne(ctx, testMint)

	assert.False(t, l.HasPosition(testMint))
	assert.Equal(t, 0, gw.sellCalls) // abandoning never sells

	stats := l.stats.Snapshot()
	assert.InDelta(t, -0.1, stats.RealizedPnL, 1e-9)

	records, err := store.ListByMint(ctx, testMint, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeActionAbandon, records[0].Action)
	assert.Equal(t, 0.0, records[0].SOLAmount)
}

func TestSellRetriesThenQueues(t *testing.T) {
	gw := &fakeGateway{sellErr: errors.New("congested")}
	l := testLedger(gw, nil, Options{SellRetries: 3})
	ctx := context.Background()

	l.RecordBuy(ctx, buyEvent(), buyResult(100_000_000, 1_000_000))
	require.NoError(t, l.SellNow(ctx, testMint, domain.ExitReasonCopiedSell))

	assert.Equal(t, 3, gw.sellCalls)
	assert.True(t, l.HasPosition(testMint)) // still open, queued
	assert.Equal(t, int64(1), l.stats.Snapshot().Failed)

	// Background queue retries on the next pass; the venue recovered.
	gw.sellErr = nil
	gw.sellFailures = gw.sellCalls
	gw.quoteLamports = 90_000_000
	l.drainRetryQueue(ctx)
	assert.False(t, l.HasPosition(testMint))
}

func TestSellNowWithoutPosition(t *testing.T) {
	l := testLedger(&fakeGateway{}, nil, Options{})
	assert.Error(t, l.SellNow(context.Background(), testMint, domain.ExitReasonCopiedSell))
}

// blockingGateway holds every sell open until released, counting entries.
type blockingGateway struct {
	fakeGateway
	mu      sync.Mutex
	entered int
	release chan struct{}
}

func (b *blockingGateway) Sell(_ context.Context, _ string, tokens int64, _ string) (*gateway.TradeResult, error) {
	b.mu.Lock()
	b.entered++
	b.mu.Unlock()
	<-b.release
	return &gateway.TradeResult{
		Signature:        "sig-sell",
		LamportsReceived: 100_000_000,
		TokenAmount:      tokens,
	}, nil
}

func TestConcurrentExitsSellOnce(t *testing.T) {
	gw := &blockingGateway{release: make(chan struct{})}
	l := testLedger(gw, nil, Options{MaxPositions: 2})
	ctx := context.Background()

	l.RecordBuy(ctx, buyEvent(), buyResult(100_000_000, 1_000_000))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.SellNow(ctx, testMint, domain.ExitReasonCopiedSell)
		}(i)
	}

	// One exit reaches the gateway and blocks there; the other must drop
	// out at the in-flight guard instead of selling the balance again.
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.entered == 1
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(gw.release)
	wg.Wait()

	gw.mu.Lock()
	assert.Equal(t, 1, gw.entered)
	gw.mu.Unlock()
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.False(t, l.HasPosition(testMint))

	// Proceeds credited exactly once.
	assert.InDelta(t, 0.1, l.stats.Snapshot().SOLReceived, 1e-9)
}

func TestTrailingStopAfterPeak(t *testing.T) {
	gw := &fakeGateway{quoteLamports: 300_000_000}
	l := testLedger(gw, nil, Options{Rules: ExitRules{TrailingStopPct: 30}})
	ctx := context.Background()

	l.RecordBuy(ctx, buyEvent(), buyResult(100_000_000, 1_000_000))

	// First check: 3x, peak recorded, no exit.
	l.checkOne(ctx, testMint)
	assert.True(t, l.HasPosition(testMint))

	// Value falls 40% from the peak: trailing stop sells.
	gw.quoteLamports = 180_000_000
	l.checkOne(ctx, testMint)
	assert.False(t, l.HasPosition(testMint))
	assert.InDelta(t, 0.08, l.stats.Snapshot().RealizedPnL, 1e-9)
}
