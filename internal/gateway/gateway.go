// Package gateway executes swaps through external trade services. The
// generic router handles established venues; the bonding-curve service
// handles tokens too new to have routed liquidity.
package gateway

import (
	"context"
)

// TradeResult reports an executed trade. Received amounts are the route's
// quoted amounts at execution time, not post-settlement balances.
type TradeResult struct {
	Signature        string
	LamportsSpent    int64
	LamportsReceived int64
	TokenAmount      int64
}

// Gateway executes buys and sells and prices open positions.
type Gateway interface {
	// Buy swaps lamports of SOL into mint.
	Buy(ctx context.Context, mint string, lamports int64, venue string) (*TradeResult, error)
	// Sell swaps tokenAmount of mint back into SOL.
	Sell(ctx context.Context, mint string, tokenAmount int64, venue string) (*TradeResult, error)
	// SellQuote returns the lamports a sell of tokenAmount would currently
	// fetch, without executing.
	SellQuote(ctx context.Context, mint string, tokenAmount int64) (int64, error)
}
