package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// Proportional sizing bounds.
const (
	// proportionalFloor is the minimum fraction of our balance mirrored per
	// trade, so tiny signals are not copied at dust scale.
	proportionalFloor = 0.15
	// proportionalCeiling caps any single proportional trade at half the
	// available balance.
	proportionalCeiling = 0.5
)

// SizingConfig selects and parameterizes one of the two sizing modes.
type SizingConfig struct {
	// Proportional mirrors the fraction of the signal wallet's balance the
	// trade represents; fixed mode uses FixedPct of ours instead.
	Proportional bool
	FixedPct     float64 // fraction of available balance, fixed mode
	PerTradeSOL  float64 // hard cap per trade
	MinTradeSOL  float64 // floor below which trades are rounded up or rejected
	// FeeReserveSOL is withheld per open position plus one, so every
	// position can still afford its exit fees.
	FeeReserveSOL float64
	// TraderBalanceTTL bounds how often a signal wallet's balance is
	// refetched for proportional sizing.
	TraderBalanceTTL time.Duration
}

// sizer computes copy-trade sizes. It caches tracked-wallet balances to
// bound RPC calls.
type sizer struct {
	cfg SizingConfig
	rpc solana.Client

	mu       sync.Mutex
	balances map[string]cachedBalance
	now      func() time.Time
}

type cachedBalance struct {
	lamports  int64
	fetchedAt time.Time
}

func newSizer(cfg SizingConfig, rpc solana.Client) *sizer {
	if cfg.TraderBalanceTTL <= 0 {
		cfg.TraderBalanceTTL = 5 * time.Minute
	}
	return &sizer{
		cfg:      cfg,
		rpc:      rpc,
		balances: make(map[string]cachedBalance),
		now:      time.Now,
	}
}

// available returns the balance usable for a new trade: the wallet balance
// minus a fee reserve scaled by open positions.
func (s *sizer) available(balanceSOL float64, openPositions int) float64 {
	return balanceSOL - s.cfg.FeeReserveSOL*float64(1+openPositions)
}

// size computes the SOL to spend copying ev, given our balance and open
// position count. Returns 0 with a reason when the trade cannot be funded.
func (s *sizer) size(ctx context.Context, ev *domain.SwapEvent, balanceSOL float64, openPositions int) (float64, string) {
	avail := s.available(balanceSOL, openPositions)
	if avail < s.cfg.MinTradeSOL || avail <= 0 {
		return 0, domain.SkipInsufficientSOL
	}

	var size float64
	if s.cfg.Proportional {
		size = s.proportionalSize(ctx, ev, avail)
	} else {
		size = min3(avail*s.cfg.FixedPct, s.cfg.PerTradeSOL, 2*ev.SOLValue())
	}

	// A computed size below the minimum is rounded up if still affordable.
	if size < s.cfg.MinTradeSOL {
		size = s.cfg.MinTradeSOL
	}
	if size > avail {
		return 0, domain.SkipInsufficientSOL
	}
	return size, ""
}

// proportionalSize mirrors the fraction of the signal wallet's balance this
// trade represented, floored so small signals still produce a meaningful
// copy.
func (s *sizer) proportionalSize(ctx context.Context, ev *domain.SwapEvent, avail float64) float64 {
	signalFraction := 0.0
	if traderBalance, err := s.traderBalance(ctx, ev.Wallet); err == nil && traderBalance > 0 {
		signalFraction = ev.SOLValue() / traderBalance
	}

	floor := proportionalFloor
	if s.cfg.MinTradeSOL > 0 && avail > 0 {
		if f := s.cfg.MinTradeSOL / avail; f > floor {
			floor = f
		}
	}
	fraction := signalFraction
	if floor > fraction {
		fraction = floor
	}

	return min3(avail*fraction, avail*proportionalCeiling, s.cfg.PerTradeSOL)
}

// traderBalance returns the signal wallet's SOL balance, cached.
func (s *sizer) traderBalance(ctx context.Context, wallet string) (float64, error) {
	now := s.now()

	s.mu.Lock()
	cached, ok := s.balances[wallet]
	s.mu.Unlock()
	if ok && now.Sub(cached.fetchedAt) < s.cfg.TraderBalanceTTL {
		return float64(cached.lamports) / domain.LamportsPerSOL, nil
	}

	if s.rpc == nil {
		return 0, fmt.Errorf("no balance source")
	}
	lamports, err := s.rpc.GetBalance(ctx, wallet)
	if err != nil {
		if ok {
			// Stale beats absent.
			return float64(cached.lamports) / domain.LamportsPerSOL, nil
		}
		return 0, err
	}

	s.mu.Lock()
	s.balances[wallet] = cachedBalance{lamports: lamports, fetchedAt: now}
	s.mu.Unlock()
	return float64(lamports) / domain.LamportsPerSOL, nil
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
