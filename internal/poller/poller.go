// Package poller watches tracked wallets for new transactions and feeds
// detected swaps to a single handler.
package poller

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/detector"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// Default poller configuration.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultSeedLimit    = 20
	DefaultPollLimit    = 5
)

// Handler consumes detected swap events. An error is logged and the poll
// loop continues; it never stops polling.
type Handler func(ctx context.Context, ev *domain.SwapEvent) error

// Poller polls each tracked wallet's recent signatures on a fixed interval,
// detects swaps in the unseen ones, and delivers them to the handler. Each
// event is handled to completion before the next wallet is polled.
type Poller struct {
	client   solana.Client
	detector *detector.Detector
	handler  Handler
	log      *logrus.Entry

	interval  time.Duration
	seedLimit int
	pollLimit int
	wake      <-chan string

	wallets map[string]*domain.TrackedWallet
	order   []string
}

// Options configures a Poller.
type Options struct {
	// PollInterval between poll passes. Defaults to DefaultPollInterval.
	PollInterval time.Duration
	// SeedLimit is how many recent signatures are marked seen at startup so
	// historical activity is never replayed. Defaults to DefaultSeedLimit.
	SeedLimit int
	// PollLimit is how many recent signatures are fetched per wallet per
	// tick. Defaults to DefaultPollLimit.
	PollLimit int
	// Wake optionally triggers an immediate poll pass between ticks, fed by
	// the websocket log subscription. May be nil.
	Wake <-chan string
}

// New creates a Poller for the given wallet addresses.
func New(client solana.Client, det *detector.Detector, handler Handler, addresses []string, log *logrus.Entry, opts Options) *Poller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SeedLimit <= 0 {
		opts.SeedLimit = DefaultSeedLimit
	}
	if opts.PollLimit <= 0 {
		opts.PollLimit = DefaultPollLimit
	}

	wallets := make(map[string]*domain.TrackedWallet, len(addresses))
	order := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if _, ok := wallets[addr]; ok {
			continue
		}
		wallets[addr] = domain.NewTrackedWallet(addr)
		order = append(order, addr)
	}

	return &Poller{
		client:    client,
		detector:  det,
		handler:   handler,
		log:       log.WithField("component", "poller"),
		interval:  opts.PollInterval,
		seedLimit: opts.SeedLimit,
		pollLimit: opts.PollLimit,
		wake:      opts.Wake,
		wallets:   wallets,
		order:     order,
	}
}

// Run seeds the seen sets and polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.seed(ctx); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"wallets":  len(p.order),
		"interval": p.interval,
	}).Info("wallet polling started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("wallet polling stopped")
			return ctx.Err()
		case <-ticker.C:
			p.pollAll(ctx)
		case addr := <-p.wake:
			p.pollOne(ctx, addr)
		}
	}
}

// seed marks each wallet's recent history as seen so the bot never copies
// trades that happened before it started.
func (p *Poller) seed(ctx context.Context) error {
	for _, addr := range p.order {
		sigs, err := p.client.GetSignaturesForAddress(ctx, addr, &solana.SignaturesOpts{Limit: p.seedLimit})
		if err != nil {
			return err
		}
		w := p.wallets[addr]
		for _, s := range sigs {
			w.MarkSeen(s.Signature)
		}
		p.log.WithFields(logrus.Fields{
			"wallet": addr,
			"seeded": len(sigs),
		}).Debug("seen set seeded")
	}
	return nil
}

func (p *Poller) pollAll(ctx context.Context) {
	for _, addr := range p.order {
		if ctx.Err() != nil {
			return
		}
		p.pollOne(ctx, addr)
	}
}

// pollOne fetches the wallet's recent signatures and processes each unseen
// one. Signatures are marked seen regardless of detection outcome so a
// non-swap transaction is never refetched.
func (p *Poller) pollOne(ctx context.Context, addr string) {
	w, ok := p.wallets[addr]
	if !ok {
		return
	}

	sigs, err := p.client.GetSignaturesForAddress(ctx, addr, &solana.SignaturesOpts{Limit: p.pollLimit})
	if err != nil {
		p.log.WithError(err).WithField("wallet", addr).Warn("signature poll failed")
		return
	}

	// Oldest first so events arrive roughly in ledger order per wallet.
	for i := len(sigs) - 1; i >= 0; i-- {
		s := sigs[i]
		if !w.MarkSeen(s.Signature) {
			continue
		}
		if s.Err != nil {
			continue
		}
		p.process(ctx, w, s.Signature)
	}
}

func (p *Poller) process(ctx context.Context, w *domain.TrackedWallet, signature string) {
	tx, err := p.client.GetTransaction(ctx, signature)
	if err != nil {
		p.log.WithError(err).WithField("signature", signature).Warn("transaction fetch failed")
		return
	}

	ev := p.detector.Detect(tx, w.Address)
	if ev == nil {
		return
	}

	p.log.WithFields(logrus.Fields{
		"wallet":    ev.Wallet,
		"direction": ev.Direction,
		"mint":      ev.TokenMint,
		"sol":       ev.SOLValue(),
		"venue":     ev.Venue,
	}).Info("swap detected")

	if err := p.handler(ctx, ev); err != nil {
		p.log.WithError(err).WithField("signature", signature).Error("swap handler failed")
	}
}
