// Package ledger owns the set of open positions: entries from copied buys,
// periodic revaluation, and exits through the fixed priority rules or a
// copied sell.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/gateway"
	"solana-copy-trader/internal/storage"
)

// Default ledger configuration.
const (
	DefaultCheckInterval = 60 * time.Second
	DefaultSellRetries   = 3
	DefaultRetryDelay    = 2 * time.Second
	DefaultMaxPositions  = 5
)

// Options configures a Ledger.
type Options struct {
	Rules         ExitRules
	MaxPositions  int
	CheckInterval time.Duration
	// SellRetries bounds immediate attempts per sell; exhausted sells go to
	// the background retry queue.
	SellRetries int
	RetryDelay  time.Duration
	Simulated   bool
}

// Ledger tracks open positions and drives their exits. At most one position
// is open per mint; a repeated buy averages into the existing position.
type Ledger struct {
	gw      gateway.Gateway
	records storage.TradeRecordStore
	stats   *domain.TradeStats
	log     *logrus.Entry

	rules         ExitRules
	maxPositions  int
	checkInterval time.Duration
	sellRetries   int
	retryDelay    time.Duration
	simulated     bool

	mu        sync.Mutex
	positions map[string]*domain.Position
	queued    map[string]string // mint -> exit reason, pending background retry
	closing   map[string]bool   // mints with an exit in flight

	now func() time.Time
}

// New creates a Ledger.
func New(gw gateway.Gateway, records storage.TradeRecordStore, stats *domain.TradeStats, log *logrus.Entry, opts Options) *Ledger {
	if opts.MaxPositions <= 0 {
		opts.MaxPositions = DefaultMaxPositions
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.SellRetries <= 0 {
		opts.SellRetries = DefaultSellRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Ledger{
		gw:            gw,
		records:       records,
		stats:         stats,
		log:           log.WithField("component", "ledger"),
		rules:         opts.Rules,
		maxPositions:  opts.MaxPositions,
		checkInterval: opts.CheckInterval,
		sellRetries:   opts.SellRetries,
		retryDelay:    opts.RetryDelay,
		simulated:     opts.Simulated,
		positions:     make(map[string]*domain.Position),
		queued:        make(map[string]string),
		closing:       make(map[string]bool),
		now:           time.Now,
	}
}

// HasPosition reports whether a position is open for mint.
func (l *Ledger) HasPosition(mint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.positions[mint]
	return ok
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.positions)
}

// CanOpenMore reports whether a slot is free for a brand-new token. Adding
// to an already-held token never needs a slot.
func (l *Ledger) CanOpenMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.positions) < l.maxPositions
}

// TokensHeld returns the token balance of the open position for mint, 0 if
// none.
func (l *Ledger) TokensHeld(mint string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.positions[mint]; ok {
		return p.TokenAmount
	}
	return 0
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	return out
}

// RecordBuy registers an executed copy buy, opening a position or averaging
// into the existing one, and persists the trade.
func (l *Ledger) RecordBuy(ctx context.Context, ev *domain.SwapEvent, result *gateway.TradeResult) {
	spentSOL := float64(result.LamportsSpent) / domain.LamportsPerSOL

	l.mu.Lock()
	p, ok := l.positions[ev.TokenMint]
	if !ok {
		p = &domain.Position{
			TokenMint:      ev.TokenMint,
			EntryTime:      l.now(),
			EntrySignature: result.Signature,
			CopiedFrom:     ev.Wallet,
			Venue:          ev.Venue,
		}
		l.positions[ev.TokenMint] = p
	}
	p.EntrySOL += spentSOL
	p.TokenAmount += result.TokenAmount
	p.CurrentValueSOL = p.EntrySOL
	if p.CurrentValueSOL > p.HighestValueSOL {
		p.HighestValueSOL = p.CurrentValueSOL
	}
	open := len(l.positions)
	l.mu.Unlock()

	l.log.WithFields(logrus.Fields{
		"mint":      ev.TokenMint,
		"sol":       spentSOL,
		"tokens":    result.TokenAmount,
		"venue":     ev.Venue,
		"positions": open,
		"averaged":  ok,
	}).Info("position opened")

	l.persist(ctx, &domain.TradeRecord{
		TradeID:    result.Signature,
		Action:     domain.TradeActionBuy,
		TokenMint:  ev.TokenMint,
		Wallet:     ev.Wallet,
		SOLAmount:  spentSOL,
		TokenUnits: result.TokenAmount,
		Venue:      ev.Venue,
		Simulated:  l.simulated,
		Timestamp:  l.now().UnixMilli(),
	})
}

// SellNow closes the position for mint immediately with the given reason,
// bypassing exit evaluation. Used for copied sells and manual exits.
func (l *Ledger) SellNow(ctx context.Context, mint, reason string) error {
	l.mu.Lock()
	p, ok := l.positions[mint]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("no open position for %s", mint)
	}
	l.closePosition(ctx, p, reason)
	return nil
}

// Run revalues and evaluates open positions on a fixed interval until the
// context is cancelled. Queued failed sells are retried first each pass.
func (l *Ledger) Run(ctx context.Context) error {
	l.log.WithFields(logrus.Fields{
		"interval":      l.checkInterval,
		"max_positions": l.maxPositions,
	}).Info("position monitoring started")

	ticker := time.NewTicker(l.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("position monitoring stopped")
			return ctx.Err()
		case <-ticker.C:
			l.drainRetryQueue(ctx)
			l.checkAll(ctx)
		}
	}
}

// checkAll revalues each open position and executes the first matching exit
// rule.
func (l *Ledger) checkAll(ctx context.Context) {
	l.mu.Lock()
	mints := make([]string, 0, len(l.positions))
	for mint := range l.positions {
		if _, pending := l.queued[mint]; pending || l.closing[mint] {
			continue
		}
		mints = append(mints, mint)
	}
	l.mu.Unlock()

	for _, mint := range mints {
		if ctx.Err() != nil {
			return
		}
		l.checkOne(ctx, mint)
	}
}

func (l *Ledger) checkOne(ctx context.Context, mint string) {
	l.mu.Lock()
	p, ok := l.positions[mint]
	if !ok {
		l.mu.Unlock()
		return
	}
	tokens := p.TokenAmount
	l.mu.Unlock()

	quote, err := l.gw.SellQuote(ctx, mint, tokens)
	l.mu.Lock()
	p, ok = l.positions[mint]
	if !ok {
		l.mu.Unlock()
		return
	}
	if err != nil {
		// Transient quote failure: keep the last known value, never assume
		// zero.
		l.log.WithError(err).WithField("mint", mint).Warn("revaluation quote failed")
	} else {
		p.CurrentValueSOL = float64(quote) / domain.LamportsPerSOL
		if p.CurrentValueSOL > p.HighestValueSOL {
			p.HighestValueSOL = p.CurrentValueSOL
		}
		p.LastQuoteTime = l.now()
	}
	reason := l.rules.Evaluate(p, l.now())
	l.mu.Unlock()

	if reason == "" {
		return
	}
	l.closePosition(ctx, p, reason)
}

// closePosition abandons or sells a position. A sell that exhausts its
// retry budget stays open and is queued for background retry. The closing
// set guards against a copied sell and the sweep double-selling the same
// position; the loser of the race drops out here.
func (l *Ledger) closePosition(ctx context.Context, p *domain.Position, reason string) {
	l.mu.Lock()
	if l.closing[p.TokenMint] {
		l.mu.Unlock()
		return
	}
	l.closing[p.TokenMint] = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.closing, p.TokenMint)
		l.mu.Unlock()
	}()

	if reason == domain.ExitReasonAbandoned {
		l.abandon(ctx, p)
		return
	}

	result, err := l.sellWithRetry(ctx, p)
	if err != nil {
		l.stats.RecordFailed()
		l.mu.Lock()
		l.queued[p.TokenMint] = reason
		l.mu.Unlock()
		l.log.WithError(err).WithFields(logrus.Fields{
			"mint":   p.TokenMint,
			"reason": reason,
		}).Error("sell failed, queued for retry")
		return
	}

	proceedsSOL := float64(result.LamportsReceived) / domain.LamportsPerSOL
	pnl := proceedsSOL - p.EntrySOL

	l.mu.Lock()
	delete(l.positions, p.TokenMint)
	delete(l.queued, p.TokenMint)
	l.mu.Unlock()

	l.stats.RecordCopied(domain.DirectionSell, proceedsSOL)
	l.stats.RecordRealized(pnl)

	l.log.WithFields(logrus.Fields{
		"mint":     p.TokenMint,
		"reason":   reason,
		"entry":    p.EntrySOL,
		"received": proceedsSOL,
		"pnl":      pnl,
	}).Info("position sold")

	l.persist(ctx, &domain.TradeRecord{
		TradeID:    result.Signature,
		Action:     domain.TradeActionSell,
		TokenMint:  p.TokenMint,
		Wallet:     p.CopiedFrom,
		SOLAmount:  proceedsSOL,
		TokenUnits: result.TokenAmount,
		Venue:      p.Venue,
		Reason:     reason,
		PnLSOL:     pnl,
		Simulated:  l.simulated,
		Timestamp:  l.now().UnixMilli(),
	})
}

// abandon frees the slot with zero proceeds; selling a worthless token
// would cost more in fees than it returns.
func (l *Ledger) abandon(ctx context.Context, p *domain.Position) {
	l.mu.Lock()
	delete(l.positions, p.TokenMint)
	delete(l.queued, p.TokenMint)
	l.mu.Unlock()

	l.stats.RecordRealized(-p.EntrySOL)

	l.log.WithFields(logrus.Fields{
		"mint":  p.TokenMint,
		"entry": p.EntrySOL,
		"value": p.CurrentValueSOL,
	}).Warn("position abandoned")

	l.persist(ctx, &domain.TradeRecord{
		TradeID:    fmt.Sprintf("abandon-%s-%d", p.TokenMint, l.now().UnixMilli()),
		Action:     domain.TradeActionAbandon,
		TokenMint:  p.TokenMint,
		Wallet:     p.CopiedFrom,
		TokenUnits: p.TokenAmount,
		Venue:      p.Venue,
		Reason:     domain.ExitReasonAbandoned,
		PnLSOL:     -p.EntrySOL,
		Simulated:  l.simulated,
		Timestamp:  l.now().UnixMilli(),
	})
}

// sellWithRetry attempts the sell up to the retry budget with exponential
// backoff. An unsold losing position is unbounded risk, unlike a missed buy.
func (l *Ledger) sellWithRetry(ctx context.Context, p *domain.Position) (*gateway.TradeResult, error) {
	delay := l.retryDelay
	var lastErr error
	for attempt := 0; attempt < l.sellRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		result, err := l.gw.Sell(ctx, p.TokenMint, p.TokenAmount, p.Venue)
		if err == nil {
			return result, nil
		}
		lastErr = err
		l.log.WithError(err).WithFields(logrus.Fields{
			"mint":    p.TokenMint,
			"attempt": attempt + 1,
		}).Warn("sell attempt failed")
	}
	return nil, lastErr
}

// drainRetryQueue re-attempts sells that exhausted their immediate budget.
func (l *Ledger) drainRetryQueue(ctx context.Context) {
	l.mu.Lock()
	pending := make(map[string]string, len(l.queued))
	for mint, reason := range l.queued {
		pending[mint] = reason
	}
	l.mu.Unlock()

	for mint, reason := range pending {
		if ctx.Err() != nil {
			return
		}
		l.mu.Lock()
		p, ok := l.positions[mint]
		if !ok {
			delete(l.queued, mint)
		}
		l.mu.Unlock()
		if !ok {
			continue
		}
		l.log.WithFields(logrus.Fields{"mint": mint, "reason": reason}).Info("retrying queued sell")
		l.closePosition(ctx, p, reason)
	}
}

// persist writes a trade record; persistence failures are logged, never
// fatal.
func (l *Ledger) persist(ctx context.Context, record *domain.TradeRecord) {
	if l.records == nil {
		return
	}
	if err := l.records.Create(ctx, record); err != nil {
		l.log.WithError(err).WithField("trade_id", record.TradeID).Error("trade record persist failed")
	}
}
