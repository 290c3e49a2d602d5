// Package simulation replaces live execution with a deterministic mock so
// the full decision pipeline can run against real signals without risking
// funds. Fills are extrapolated from the signal's own swap ratio, and the
// simulated account survives restarts through a persisted state document.
package simulation

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/gateway"
)

// Gateway is the simulated execution backend.
type Gateway struct {
	mu        sync.Mutex
	state     *State
	statePath string
	log       *logrus.Entry
	seq       int64
}

var _ gateway.Gateway = (*Gateway)(nil)

// New loads the persisted simulation state at statePath, or starts a fresh
// account with startingLamports if none exists.
func New(statePath string, startingLamports int64, log *logrus.Entry) (*Gateway, error) {
	state, err := LoadState(statePath)
	if err != nil {
		return nil, err
	}
	entry := log.WithField("component", "simulation")
	if state == nil {
		state = NewState(startingLamports)
		entry.WithField("balance_sol", float64(startingLamports)/domain.LamportsPerSOL).
			Info("starting fresh simulated account")
	} else {
		entry.WithFields(logrus.Fields{
			"balance_sol": float64(state.BalanceLamports) / domain.LamportsPerSOL,
			"positions":   len(state.Positions),
		}).Info("resumed simulated account")
	}
	return &Gateway{state: state, statePath: statePath, log: entry}, nil
}

// Observe records a signal's swap ratio so later fills for the same mint can
// be priced. Call it for every detected swap before the engine acts on it.
func (g *Gateway) Observe(ev *domain.SwapEvent) {
	if ev == nil || ev.TokenAmount <= 0 || ev.LamportsAmount <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Prices[ev.TokenMint] = Price{Lamports: ev.LamportsAmount, Tokens: ev.TokenAmount}
}

// Balance returns the simulated SOL balance.
func (g *Gateway) Balance(context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.BalanceLamports, nil
}

// Buy fills at the mint's last observed ratio: spending a fraction of what
// the signal spent yields the same fraction of what the signal received.
func (g *Gateway) Buy(_ context.Context, mint string, lamports int64, _ string) (*gateway.TradeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	price, ok := g.state.Prices[mint]
	if !ok {
		return nil, fmt.Errorf("no observed price for %s", mint)
	}
	if lamports > g.state.BalanceLamports {
		return nil, fmt.Errorf("simulated balance %d below trade size %d", g.state.BalanceLamports, lamports)
	}

	tokens := scale(price.Tokens, lamports, price.Lamports)
	if tokens <= 0 {
		return nil, fmt.Errorf("trade of %d lamports rounds to zero tokens", lamports)
	}

	g.state.BalanceLamports -= lamports
	pos := g.state.Positions[mint]
	if pos == nil {
		pos = &Position{EntryTime: time.Now()}
		g.state.Positions[mint] = pos
	}
	pos.EntryLamports += lamports
	pos.TokenAmount += tokens
	g.record("BUY", mint, lamports, tokens)

	return &gateway.TradeResult{
		Signature:     g.signature("buy"),
		LamportsSpent: lamports,
		TokenAmount:   tokens,
	}, nil
}

// Sell fills at the mint's last observed ratio and credits the proceeds.
func (g *Gateway) Sell(_ context.Context, mint string, tokenAmount int64, _ string) (*gateway.TradeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	price, ok := g.state.Prices[mint]
	if !ok {
		return nil, fmt.Errorf("no observed price for %s", mint)
	}

	lamports := scale(price.Lamports, tokenAmount, price.Tokens)
	g.state.BalanceLamports += lamports

	if pos := g.state.Positions[mint]; pos != nil {
		pos.TokenAmount -= tokenAmount
		if pos.TokenAmount <= 0 {
			delete(g.state.Positions, mint)
		}
	}
	g.record("SELL", mint, lamports, tokenAmount)

	return &gateway.TradeResult{
		Signature:        g.signature("sell"),
		LamportsReceived: lamports,
		TokenAmount:      tokenAmount,
	}, nil
}

// SellQuote prices tokens at the last observed ratio.
func (g *Gateway) SellQuote(_ context.Context, mint string, tokenAmount int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	price, ok := g.state.Prices[mint]
	if !ok {
		return 0, fmt.Errorf("no observed price for %s", mint)
	}
	return scale(price.Lamports, tokenAmount, price.Tokens), nil
}

// record appends to the history and persists. Persistence failures are
// logged, not fatal: a lost snapshot only costs resume fidelity.
func (g *Gateway) record(action, mint string, lamports, tokens int64) {
	g.state.History = append(g.state.History, TradeEntry{
		Time:     time.Now(),
		Action:   action,
		Mint:     mint,
		Lamports: lamports,
		Tokens:   tokens,
	})
	if err := g.state.Save(g.statePath); err != nil {
		g.log.WithError(err).Error("simulation state persist failed")
	}
}

func (g *Gateway) signature(action string) string {
	g.seq++
	return fmt.Sprintf("sim-%s-%d-%d", action, time.Now().UnixMilli(), g.seq)
}

// scale computes value * num / den without int64 overflow on large token
// amounts.
func scale(value, num, den int64) int64 {
	if den == 0 {
		return 0
	}
	out := new(big.Int).Mul(big.NewInt(value), big.NewInt(num))
	out.Quo(out, big.NewInt(den))
	return out.Int64()
}
