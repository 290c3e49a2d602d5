// Package detector turns raw transaction records into normalized swap
// events. It fails soft: anything malformed, failed, or not recognizably a
// simple two-leg token-for-SOL swap yields no event.
package detector

import (
	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// DefaultMinLamports filters dust swaps below 0.001 SOL.
const DefaultMinLamports = 1_000_000

// Detector extracts swap events attributable to a single wallet from
// transaction balance metadata.
type Detector struct {
	minLamports int64
	log         *logrus.Entry
}

// Option configures a Detector.
type Option func(*Detector)

// WithMinLamports sets the dust threshold on the swap's SOL leg.
func WithMinLamports(n int64) Option {
	return func(d *Detector) {
		d.minLamports = n
	}
}

// New creates a Detector.
func New(log *logrus.Entry, opts ...Option) *Detector {
	d := &Detector{
		minLamports: DefaultMinLamports,
		log:         log.WithField("component", "detector"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the swap event the wallet performed in tx, or nil when the
// transaction is not a simple two-leg swap by that wallet.
//
// A venue fast path runs first: if a known trading program appears in the
// account keys, venue heuristics relax token-ownership attribution (pump.fun
// creates the buyer's token account in the same transaction, so ownership
// metadata can be missing). Otherwise the generic path requires exactly one
// non-native token delta owned by the wallet.
func (d *Detector) Detect(tx *solana.Transaction, wallet string) *domain.SwapEvent {
	if tx == nil || tx.Meta == nil || tx.Message == nil {
		return nil
	}
	if tx.Failed() {
		return nil
	}

	keys := tx.AllAccountKeys()
	venue := classifyVenue(keys)

	walletIdx := -1
	for i, k := range keys {
		if k == wallet {
			walletIdx = i
			break
		}
	}
	if walletIdx < 0 {
		return nil
	}
	if walletIdx >= len(tx.Meta.PreBalances) || walletIdx >= len(tx.Meta.PostBalances) {
		return nil
	}

	solDelta := tx.Meta.PostBalances[walletIdx] - tx.Meta.PreBalances[walletIdx]

	// Bonding-curve venue heuristic: the protagonist is the primary signer,
	// so token accounts with absent ownership metadata are attributed to the
	// wallet.
	attributeUnowned := venue == domain.VenuePumpFun && isPrimarySigner(tx, wallet)

	deltas := tokenDeltas(tx.Meta, wallet, attributeUnowned)

	var mint string
	var tokenDelta int64
	for m, delta := range deltas {
		if delta == 0 {
			continue
		}
		if mint != "" {
			// More than one token moved: not a simple two-leg swap.
			return nil
		}
		mint = m
		tokenDelta = delta
	}
	if mint == "" {
		return nil
	}

	var direction string
	var lamports int64
	switch {
	case tokenDelta > 0 && solDelta < 0:
		direction = domain.DirectionBuy
		lamports = -solDelta
	case tokenDelta < 0 && solDelta > 0:
		direction = domain.DirectionSell
		lamports = solDelta
		tokenDelta = -tokenDelta
	default:
		return nil
	}

	if lamports < d.minLamports {
		d.log.WithFields(logrus.Fields{
			"signature": tx.Signature,
			"lamports":  lamports,
		}).Debug("swap below dust threshold")
		return nil
	}

	return &domain.SwapEvent{
		Signature:      tx.Signature,
		Wallet:         wallet,
		Direction:      direction,
		TokenMint:      mint,
		LamportsAmount: lamports,
		TokenAmount:    tokenDelta,
		Venue:          venue,
		BlockTime:      tx.BlockTime,
	}
}

func isPrimarySigner(tx *solana.Transaction, wallet string) bool {
	return len(tx.Message.Signers) > 0 && tx.Message.Signers[0] == wallet
}

// tokenDeltas aggregates per-mint balance changes for accounts owned by
// wallet, excluding native/stable mints. With attributeUnowned set, token
// balances missing an owner are counted as the wallet's.
func tokenDeltas(meta *solana.TransactionMeta, wallet string, attributeUnowned bool) map[string]int64 {
	owned := func(b solana.TokenBalance) bool {
		if b.Owner == wallet {
			return true
		}
		return attributeUnowned && b.Owner == ""
	}

	deltas := make(map[string]int64)
	for _, b := range meta.PostTokenBalances {
		if nativeMints[b.Mint] || !owned(b) {
			continue
		}
		deltas[b.Mint] += b.Amount
	}
	for _, b := range meta.PreTokenBalances {
		if nativeMints[b.Mint] || !owned(b) {
			continue
		}
		deltas[b.Mint] -= b.Amount
	}
	return deltas
}
