package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// DefaultConfirmTimeout bounds how long a submitted trade is awaited.
const DefaultConfirmTimeout = 60 * time.Second

// A confirmed transaction is not always immediately queryable; settlement
// readback retries briefly before giving up.
const (
	settleAttempts     = 5
	DefaultSettleDelay = time.Second
)

// LiveGateway executes real trades: pump.fun venue through the
// bonding-curve service, everything else through the router. Transactions
// are signed locally and submitted over RPC.
type LiveGateway struct {
	rpc            solana.Client
	jupiter        *JupiterClient
	pump           *PumpPortalClient
	signer         Signer
	log            *logrus.Entry
	confirmTimeout time.Duration
	settleDelay    time.Duration
}

var _ Gateway = (*LiveGateway)(nil)

// NewLiveGateway creates a live execution gateway.
func NewLiveGateway(rpc solana.Client, jupiter *JupiterClient, pump *PumpPortalClient, signer Signer, log *logrus.Entry) *LiveGateway {
	return &LiveGateway{
		rpc:            rpc,
		jupiter:        jupiter,
		pump:           pump,
		signer:         signer,
		log:            log.WithField("component", "gateway"),
		confirmTimeout: DefaultConfirmTimeout,
		settleDelay:    DefaultSettleDelay,
	}
}

// Buy swaps lamports of SOL into mint.
func (g *LiveGateway) Buy(ctx context.Context, mint string, lamports int64, venue string) (*TradeResult, error) {
	if venue == domain.VenuePumpFun {
		solAmount := float64(lamports) / domain.LamportsPerSOL
		unsigned, err := g.pump.BuildBuy(ctx, g.signer.PublicKey(), mint, solAmount)
		if err != nil {
			return nil, err
		}
		sig, err := g.submit(ctx, unsigned)
		if err != nil {
			return nil, err
		}
		// The bonding-curve service quotes neither side; the confirmed
		// transaction is the only source of executed amounts.
		lamportsDelta, tokens, err := g.settle(ctx, sig, mint)
		if err != nil {
			return nil, fmt.Errorf("settle buy %s: %w", sig, err)
		}
		if tokens <= 0 {
			return nil, fmt.Errorf("buy %s confirmed but no %s received", sig, mint)
		}
		spent := lamports
		if lamportsDelta < 0 {
			spent = -lamportsDelta
		}
		return &TradeResult{Signature: sig, LamportsSpent: spent, TokenAmount: tokens}, nil
	}

	quote, err := g.jupiter.GetQuote(ctx, WSOLMint, mint, lamports)
	if err != nil {
		return nil, err
	}
	unsigned, err := g.jupiter.BuildSwap(ctx, quote, g.signer.PublicKey())
	if err != nil {
		return nil, err
	}
	sig, err := g.submit(ctx, unsigned)
	if err != nil {
		return nil, err
	}
	return &TradeResult{
		Signature:     sig,
		LamportsSpent: lamports,
		TokenAmount:   quote.OutAmount,
	}, nil
}

// Sell swaps tokenAmount of mint back into SOL.
func (g *LiveGateway) Sell(ctx context.Context, mint string, tokenAmount int64, venue string) (*TradeResult, error) {
	if venue == domain.VenuePumpFun {
		unsigned, err := g.pump.BuildSell(ctx, g.signer.PublicKey(), mint, tokenAmount)
		if err != nil {
			return nil, err
		}
		sig, err := g.submit(ctx, unsigned)
		if err != nil {
			return nil, err
		}
		lamportsDelta, _, err := g.settle(ctx, sig, mint)
		if err != nil {
			return nil, fmt.Errorf("settle sell %s: %w", sig, err)
		}
		var received int64
		if lamportsDelta > 0 {
			received = lamportsDelta
		}
		return &TradeResult{Signature: sig, LamportsReceived: received, TokenAmount: tokenAmount}, nil
	}

	quote, err := g.jupiter.GetQuote(ctx, mint, WSOLMint, tokenAmount)
	if err != nil {
		return nil, err
	}
	unsigned, err := g.jupiter.BuildSwap(ctx, quote, g.signer.PublicKey())
	if err != nil {
		return nil, err
	}
	sig, err := g.submit(ctx, unsigned)
	if err != nil {
		return nil, err
	}
	return &TradeResult{
		Signature:        sig,
		LamportsReceived: quote.OutAmount,
		TokenAmount:      tokenAmount,
	}, nil
}

// SellQuote prices a full exit of tokenAmount through the router.
func (g *LiveGateway) SellQuote(ctx context.Context, mint string, tokenAmount int64) (int64, error) {
	quote, err := g.jupiter.GetQuote(ctx, mint, WSOLMint, tokenAmount)
	if err != nil {
		return 0, err
	}
	return quote.OutAmount, nil
}

// submit signs, sends, and waits for confirmation.
func (g *LiveGateway) submit(ctx context.Context, unsignedTxBase64 string) (string, error) {
	signed, err := g.signer.Sign(unsignedTxBase64)
	if err != nil {
		return "", err
	}

	sig, err := g.rpc.SendTransaction(ctx, signed)
	if err != nil {
		return "", err
	}

	confirmed, err := g.rpc.ConfirmTransaction(ctx, sig, g.confirmTimeout)
	if err != nil {
		return "", fmt.Errorf("confirm %s: %w", sig, err)
	}
	if !confirmed {
		return "", fmt.Errorf("transaction %s not confirmed within %s", sig, g.confirmTimeout)
	}

	g.log.WithField("signature", sig).Info("transaction confirmed")
	return sig, nil
}

// settle reads a confirmed transaction back and returns our wallet's
// lamport and token deltas for mint, net of fees.
func (g *LiveGateway) settle(ctx context.Context, sig, mint string) (lamportsDelta, tokenDelta int64, err error) {
	var tx *solana.Transaction
	for attempt := 0; attempt < settleAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, 0, ctx.Err()
			case <-time.After(g.settleDelay):
			}
		}
		tx, err = g.rpc.GetTransaction(ctx, sig)
		if err != nil {
			return 0, 0, err
		}
		if tx != nil {
			break
		}
	}
	if tx == nil {
		return 0, 0, fmt.Errorf("confirmed transaction %s not queryable", sig)
	}
	if tx.Meta == nil {
		return 0, 0, fmt.Errorf("transaction %s has no metadata", sig)
	}

	wallet := g.signer.PublicKey()
	for i, key := range tx.AllAccountKeys() {
		if key != wallet {
			continue
		}
		if i < len(tx.Meta.PreBalances) && i < len(tx.Meta.PostBalances) {
			lamportsDelta = tx.Meta.PostBalances[i] - tx.Meta.PreBalances[i]
		}
		break
	}

	delta := func(owner string) int64 {
		var total int64
		for _, b := range tx.Meta.PostTokenBalances {
			if b.Mint == mint && b.Owner == owner {
				total += b.Amount
			}
		}
		for _, b := range tx.Meta.PreTokenBalances {
			if b.Mint == mint && b.Owner == owner {
				total -= b.Amount
			}
		}
		return total
	}
	tokenDelta = delta(wallet)
	if tokenDelta == 0 {
		// Bonding-curve token balances sometimes omit the owner; we signed
		// this transaction, so an unowned entry for mint is ours.
		tokenDelta = delta("")
	}
	return lamportsDelta, tokenDelta, nil
}
