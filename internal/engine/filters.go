package engine

import (
	"context"
	"time"

	"solana-copy-trader/internal/domain"
)

// HealthThresholds gate buys on token market health. Zero disables a
// threshold. A threshold that is enabled but cannot be verified (the source
// reported no data) fails closed.
type HealthThresholds struct {
	MinAgeMinutes    float64
	MinMarketCapUSD  float64
	MinLiquidityUSD  float64
	MinVolume24hUSD  float64
	MaxPriceChange1h float64 // max 1h run-up percent
	MinTxns1h        int64
}

// HolderThresholds gate buys on ownership concentration. Zero disables.
type HolderThresholds struct {
	MaxTop10Pct   float64
	MaxCreatorPct float64
	MinHolders    int64
}

func (t HealthThresholds) enabled() bool {
	return t.MinAgeMinutes > 0 || t.MinMarketCapUSD > 0 || t.MinLiquidityUSD > 0 ||
		t.MinVolume24hUSD > 0 || t.MaxPriceChange1h > 0 || t.MinTxns1h > 0
}

func (t HolderThresholds) enabled() bool {
	return t.MaxTop10Pct > 0 || t.MaxCreatorPct > 0 || t.MinHolders > 0
}

// checkBuyFilters runs the buy filter chain in order and returns the first
// rejection reason, or "" to proceed. The order is fixed: cooldowns and slot
// checks are cheap and run before anything that calls out to market data.
func (e *Engine) checkBuyFilters(ctx context.Context, ev *domain.SwapEvent, now time.Time) string {
	if e.cooldowns.active(sellCooldown, ev.TokenMint, now) {
		return domain.SkipSellCooldown
	}

	// A brand-new token needs a free slot; adding to a held token does not.
	if !e.ledger.HasPosition(ev.TokenMint) && !e.ledger.CanOpenMore() {
		return domain.SkipNoPositionSlot
	}

	if ev.SOLValue() < e.cfg.MinSignalSOL {
		return domain.SkipBelowMinSOL
	}

	if e.cooldowns.active(copyCooldown, ev.TokenMint, now) {
		return domain.SkipRecentlyCopied
	}

	// Very-new bonding-curve tokens have no market-data history; when the
	// operator trusts the signal source, external checks are bypassed.
	if e.cfg.TrustPumpFun && ev.Venue == domain.VenuePumpFun {
		return ""
	}

	if !e.cfg.Health.enabled() && !e.cfg.Holders.enabled() {
		return ""
	}
	snap := e.health.Snapshot(ctx, ev.TokenMint)

	if reason := checkHealth(e.cfg.Health, snap, now); reason != "" {
		return reason
	}
	return checkHolders(e.cfg.Holders, snap)
}

func checkHealth(t HealthThresholds, snap *domain.TokenHealthSnapshot, now time.Time) string {
	if !t.enabled() {
		return ""
	}
	if t.MinAgeMinutes > 0 {
		if age := snap.AgeAdjusted(now); age == domain.NoData || age < t.MinAgeMinutes {
			return domain.SkipHealthFailed
		}
	}
	if t.MinMarketCapUSD > 0 && snap.MarketCapUSD < t.MinMarketCapUSD {
		return domain.SkipHealthFailed
	}
	if t.MinLiquidityUSD > 0 && snap.LiquidityUSD < t.MinLiquidityUSD {
		return domain.SkipHealthFailed
	}
	if t.MinVolume24hUSD > 0 && snap.Volume24hUSD < t.MinVolume24hUSD {
		return domain.SkipHealthFailed
	}
	if t.MaxPriceChange1h > 0 {
		if snap.PriceChange1h == domain.NoData || snap.PriceChange1h > t.MaxPriceChange1h {
			return domain.SkipHealthFailed
		}
	}
	if t.MinTxns1h > 0 && snap.Txns1h < t.MinTxns1h {
		return domain.SkipHealthFailed
	}
	return ""
}

func checkHolders(t HolderThresholds, snap *domain.TokenHealthSnapshot) string {
	if !t.enabled() {
		return ""
	}
	if !snap.HasHolderData() {
		return domain.SkipHoldersFailed
	}
	if t.MaxTop10Pct > 0 && snap.Top10HoldersPct > t.MaxTop10Pct {
		return domain.SkipHoldersFailed
	}
	if t.MaxCreatorPct > 0 && snap.CreatorPct > t.MaxCreatorPct {
		return domain.SkipHoldersFailed
	}
	if t.MinHolders > 0 && snap.HolderCount < t.MinHolders {
		return domain.SkipHoldersFailed
	}
	return ""
}
