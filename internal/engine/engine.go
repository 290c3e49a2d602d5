// Package engine decides which detected swaps to copy and at what size,
// then drives execution through the gateway and position ledger.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/gateway"
	"solana-copy-trader/internal/ledger"
	"solana-copy-trader/internal/solana"
)

// Default engine configuration.
const (
	DefaultSellCooldown  = 2 * time.Minute
	DefaultCopyCooldown  = 60 * time.Second
	DefaultSweepInterval = 30 * time.Second
)

// HealthSource provides token health snapshots for the filter chain.
type HealthSource interface {
	Snapshot(ctx context.Context, mint string) *domain.TokenHealthSnapshot
}

// BalanceSource reports our own spendable SOL balance.
type BalanceSource interface {
	Balance(ctx context.Context) (int64, error)
}

// Config holds the engine's risk and filter parameters.
type Config struct {
	CopySells    bool
	MinSignalSOL float64 // ignore signals below this SOL value

	SellCooldown time.Duration
	CopyCooldown time.Duration
	// TrustPumpFun bypasses health and holder checks for bonding-curve
	// venue signals, which are too new to have external data.
	TrustPumpFun bool

	Health  HealthThresholds
	Holders HolderThresholds
	Sizing  SizingConfig
}

// Engine is the copy-trade decision engine. It is the poller's single
// registered handler.
type Engine struct {
	cfg       Config
	ledger    *ledger.Ledger
	gw        gateway.Gateway
	health    HealthSource
	balance   BalanceSource
	stats     *domain.TradeStats
	log       *logrus.Entry
	cooldowns *cooldownSet
	sizer     *sizer
	now       func() time.Time
}

// New creates an Engine. rpc is used only for proportional sizing's
// tracked-wallet balance lookups and may be nil in fixed mode.
func New(cfg Config, led *ledger.Ledger, gw gateway.Gateway, health HealthSource, balance BalanceSource, rpc solana.Client, stats *domain.TradeStats, log *logrus.Entry) *Engine {
	if cfg.SellCooldown <= 0 {
		cfg.SellCooldown = DefaultSellCooldown
	}
	if cfg.CopyCooldown <= 0 {
		cfg.CopyCooldown = DefaultCopyCooldown
	}
	return &Engine{
		cfg:       cfg,
		ledger:    led,
		gw:        gw,
		health:    health,
		balance:   balance,
		stats:     stats,
		log:       log.WithField("component", "engine"),
		cooldowns: newCooldownSet(),
		sizer:     newSizer(cfg.Sizing, rpc),
		now:       time.Now,
	}
}

// HandleSwap processes one detected swap event to completion.
func (e *Engine) HandleSwap(ctx context.Context, ev *domain.SwapEvent) error {
	e.stats.RecordDetected()
	if ev.IsSell() {
		return e.handleSell(ctx, ev)
	}
	return e.handleBuy(ctx, ev)
}

// handleSell mirrors the tracked wallet's exit when we hold the token; the
// rationale is self-sufficient, so every other filter is bypassed. An
// un-held sell starts a cooldown against buying into a token its signal
// source just left.
func (e *Engine) handleSell(ctx context.Context, ev *domain.SwapEvent) error {
	if !e.ledger.HasPosition(ev.TokenMint) {
		e.cooldowns.start(sellCooldown, ev.TokenMint, e.cfg.SellCooldown, e.now())
		e.skip(ev, domain.SkipNoTokensHeld)
		return nil
	}
	if !e.cfg.CopySells {
		e.skip(ev, domain.SkipSellsDisabled)
		return nil
	}

	e.log.WithFields(logrus.Fields{
		"mint":   ev.TokenMint,
		"wallet": ev.Wallet,
	}).Info("copying sell")
	if err := e.ledger.SellNow(ctx, ev.TokenMint, domain.ExitReasonCopiedSell); err != nil {
		e.stats.RecordFailed()
		return err
	}
	return nil
}

func (e *Engine) handleBuy(ctx context.Context, ev *domain.SwapEvent) error {
	now := e.now()
	if reason := e.checkBuyFilters(ctx, ev, now); reason != "" {
		e.skip(ev, reason)
		return nil
	}

	balanceLamports, err := e.balance.Balance(ctx)
	if err != nil {
		e.stats.RecordFailed()
		return err
	}
	balanceSOL := float64(balanceLamports) / domain.LamportsPerSOL

	sizeSOL, reason := e.sizer.size(ctx, ev, balanceSOL, e.ledger.OpenCount())
	if reason != "" {
		e.skip(ev, reason)
		return nil
	}

	lamports := int64(math.Round(sizeSOL * domain.LamportsPerSOL))
	e.log.WithFields(logrus.Fields{
		"mint":       ev.TokenMint,
		"wallet":     ev.Wallet,
		"signal_sol": ev.SOLValue(),
		"copy_sol":   sizeSOL,
		"venue":      ev.Venue,
	}).Info("copying buy")

	result, err := e.gw.Buy(ctx, ev.TokenMint, lamports, ev.Venue)
	if err != nil {
		// A missed buy is an acceptable loss; no retry.
		e.stats.RecordFailed()
		e.log.WithError(err).WithField("mint", ev.TokenMint).Error("buy failed")
		return err
	}

	e.ledger.RecordBuy(ctx, ev, result)
	e.stats.RecordCopied(domain.DirectionBuy, float64(result.LamportsSpent)/domain.LamportsPerSOL)
	e.cooldowns.start(copyCooldown, ev.TokenMint, e.cfg.CopyCooldown, now)
	return nil
}

func (e *Engine) skip(ev *domain.SwapEvent, reason string) {
	e.stats.RecordSkipped(reason)
	e.log.WithFields(logrus.Fields{
		"mint":      ev.TokenMint,
		"wallet":    ev.Wallet,
		"direction": ev.Direction,
		"reason":    reason,
	}).Info("signal skipped")
}

// RunCooldownSweep periodically evicts expired cooldowns until the context
// is cancelled.
func (e *Engine) RunCooldownSweep(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := e.cooldowns.sweep(e.now()); removed > 0 {
				e.log.WithField("removed", removed).Debug("cooldowns swept")
			}
		}
	}
}
