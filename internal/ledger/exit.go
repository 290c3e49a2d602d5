package ledger

import (
	"time"

	"solana-copy-trader/internal/domain"
)

// ExitRules are the automatic exit thresholds. A zero threshold disables
// that rule; the default posture is to hold and follow the tracked wallet's
// own exit.
type ExitRules struct {
	// TakeProfitPct sells once unrealized gain reaches this percentage.
	TakeProfitPct float64
	// TimeLimitMinutes sells once the position is this old.
	TimeLimitMinutes float64
	// TrailingStopPct sells once the drop from peak value reaches this
	// percentage, but only after the position has been profitable.
	TrailingStopPct float64
	// AbandonSOL abandons a position worth less than this: the slot is freed
	// with zero proceeds because selling would cost more in fees than it
	// returns.
	AbandonSOL float64
}

// Evaluate returns the exit reason for a position, or "" to keep holding.
// Rules are checked in fixed priority order; the first match wins, so a
// worthless position is abandoned even if it also satisfies take-profit.
func (r ExitRules) Evaluate(p *domain.Position, now time.Time) string {
	if p.CurrentValueSOL < r.AbandonSOL {
		return domain.ExitReasonAbandoned
	}
	if r.TakeProfitPct > 0 && p.PnLPercent() >= r.TakeProfitPct {
		return domain.ExitReasonTakeProfit
	}
	if r.TimeLimitMinutes > 0 && p.AgeMinutes(now) >= r.TimeLimitMinutes {
		return domain.ExitReasonTimeLimit
	}
	if r.TrailingStopPct > 0 && p.EverProfitable() && p.HighestValueSOL > 0 {
		dropPct := (p.HighestValueSOL - p.CurrentValueSOL) / p.HighestValueSOL * 100
		if dropPct >= r.TrailingStopPct {
			return domain.ExitReasonTrailingStop
		}
	}
	return ""
}
