package domain

// Trade actions recorded in the trade history.
const (
	TradeActionBuy     = "buy"
	TradeActionSell    = "sell"
	TradeActionAbandon = "abandon"
)

// Skip reasons surfaced by the decision engine's filter chain.
// Exactly one reason is produced per rejected event.
const (
	SkipSellCooldown    = "sell_cooldown_active"
	SkipNoPositionSlot  = "max_positions_reached"
	SkipBelowMinSOL     = "below_min_sol"
	SkipRecentlyCopied  = "recently_copied"
	SkipHealthFailed    = "token_health_failed"
	SkipHoldersFailed   = "holder_distribution_failed"
	SkipSellsDisabled   = "sell_copying_disabled"
	SkipNoTokensHeld    = "no_tokens_to_sell"
	SkipInsufficientSOL = "insufficient_balance"
)

// TradeRecord is one persisted entry in the trade history: a copied buy, a
// position exit, or an abandonment. TradeID is unique per record.
type TradeRecord struct {
	TradeID    string // signature for executed trades, synthetic for abandons
	Action     string // TradeActionBuy | TradeActionSell | TradeActionAbandon
	TokenMint  string
	Wallet     string  // tracked wallet the trade was copied from
	SOLAmount  float64 // SOL spent (buy) or received (sell); 0 for abandon
	TokenUnits int64   // token base units bought or sold
	Venue      string
	Reason     string // exit reason for sells/abandons, empty for buys
	PnLSOL     float64 // realized PnL for sells/abandons, 0 for buys
	Simulated  bool
	Timestamp  int64 // Unix milliseconds
}
