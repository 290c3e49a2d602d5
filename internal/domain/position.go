package domain

import "time"

// Exit reason codes, in evaluation priority order.
// CopiedSell bypasses the priority list entirely.
const (
	ExitReasonAbandoned    = "ABANDONED"
	ExitReasonTakeProfit   = "TAKE_PROFIT"
	ExitReasonTimeLimit    = "TIME_LIMIT"
	ExitReasonTrailingStop = "TRAILING_STOP"
	ExitReasonCopiedSell   = "COPIED_SELL"
	ExitReasonManual       = "MANUAL"
)

// Position is one open exposure to a token, mirroring a tracked wallet's buy.
// The position ledger exclusively owns the set of open positions; at most one
// position per mint is open at a time.
type Position struct {
	TokenMint      string
	EntrySOL       float64 // cumulative SOL committed, supports averaging in
	TokenAmount    int64   // token base units held
	EntryTime      time.Time
	EntrySignature string // signature of the first copied buy
	CopiedFrom     string // tracked wallet that triggered the entry
	Venue          string // venue of the entry, used to route the exit

	CurrentValueSOL float64   // last requoted sell value
	HighestValueSOL float64   // peak value, for the trailing stop
	LastQuoteTime   time.Time // zero if never requoted
}

// AgeMinutes returns the position age relative to now.
func (p *Position) AgeMinutes(now time.Time) float64 {
	return now.Sub(p.EntryTime).Minutes()
}

// PnLPercent returns unrealized profit/loss as a percentage of entry.
func (p *Position) PnLPercent() float64 {
	if p.EntrySOL == 0 {
		return 0
	}
	return (p.CurrentValueSOL - p.EntrySOL) / p.EntrySOL * 100
}

// EverProfitable reports whether the position's peak value exceeded entry.
func (p *Position) EverProfitable() bool {
	return p.HighestValueSOL > p.EntrySOL
}
