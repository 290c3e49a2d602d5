package domain

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Swap directions.
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// Known trading venues.
const (
	VenuePumpFun = "pump.fun"
	VenueJupiter = "jupiter"
	VenueRaydium = "raydium"
	VenueUnknown = "unknown"
)

// SwapEvent is an immutable record of a swap detected in a tracked wallet's
// transaction: one leg of SOL against one leg of a single token. Events below
// the detector's dust threshold are never materialized.
type SwapEvent struct {
	Signature      string // transaction signature
	Wallet         string // tracked wallet that executed the swap
	Direction      string // DirectionBuy | DirectionSell
	TokenMint      string // the non-SOL token
	LamportsAmount int64  // SOL leg in lamports, always > 0
	TokenAmount    int64  // token leg in base units, always > 0
	Venue          string // trading program that produced the swap
	BlockTime      int64  // Unix seconds, 0 if unknown
}

// SOLValue returns the SOL leg in whole SOL.
func (e *SwapEvent) SOLValue() float64 {
	return float64(e.LamportsAmount) / LamportsPerSOL
}

// IsBuy reports whether the tracked wallet bought the token.
func (e *SwapEvent) IsBuy() bool { return e.Direction == DirectionBuy }

// IsSell reports whether the tracked wallet sold the token.
func (e *SwapEvent) IsSell() bool { return e.Direction == DirectionSell }
