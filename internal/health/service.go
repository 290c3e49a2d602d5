// Package health assembles token market-health snapshots from external
// data services, with short-lived caching so the decision engine can check
// the same token repeatedly without hammering the APIs.
package health

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/domain"
)

// Cache lifetimes. Market data moves fast; holder distribution moves slowly.
const (
	DefaultMarketTTL = 60 * time.Second
	DefaultHolderTTL = 5 * time.Minute
	DefaultTimeout   = 10 * time.Second
)

// MarketSource provides token market data.
type MarketSource interface {
	Token(ctx context.Context, mint string) (*marketData, error)
}

// HolderSource provides token holder-distribution data.
type HolderSource interface {
	Report(ctx context.Context, mint string) (*holderData, error)
}

// Service caches and merges market and holder data into snapshots.
type Service struct {
	market MarketSource
	holder HolderSource
	log    *logrus.Entry

	marketCache *ttlCache[*marketData]
	holderCache *ttlCache[*holderData]

	now func() time.Time
}

// NewService creates a Service over the given sources.
func NewService(market MarketSource, holder HolderSource, log *logrus.Entry) *Service {
	return &Service{
		market:      market,
		holder:      holder,
		log:         log.WithField("component", "health"),
		marketCache: newTTLCache[*marketData](DefaultMarketTTL),
		holderCache: newTTLCache[*holderData](DefaultHolderTTL),
		now:         time.Now,
	}
}

// Snapshot returns the current health view for a mint. Each side is served
// from cache inside its TTL; a side whose fetch fails is reported as NoData
// rather than failing the whole snapshot.
func (s *Service) Snapshot(ctx context.Context, mint string) *domain.TokenHealthSnapshot {
	now := s.now()
	snap := &domain.TokenHealthSnapshot{
		Mint:            mint,
		MarketCapUSD:    domain.NoData,
		LiquidityUSD:    domain.NoData,
		Volume24hUSD:    domain.NoData,
		PriceChange1h:   domain.NoData,
		Txns1h:          domain.NoData,
		AgeMinutes:      domain.NoData,
		Top10HoldersPct: domain.NoData,
		CreatorPct:      domain.NoData,
		HolderCount:     domain.NoData,
		FetchedAt:       now,
	}

	md, ok := s.marketCache.get(mint, now)
	if !ok {
		var err error
		md, err = s.market.Token(ctx, mint)
		if err != nil {
			s.log.WithError(err).WithField("mint", mint).Debug("market data unavailable")
			md = nil
		} else {
			s.marketCache.put(mint, md, now)
		}
	}
	if md != nil {
		snap.MarketCapUSD = md.MarketCapUSD
		snap.LiquidityUSD = md.LiquidityUSD
		snap.Volume24hUSD = md.Volume24hUSD
		snap.PriceChange1h = md.PriceChange1h
		snap.Txns1h = md.Txns1h
		// Advance the token age by time spent in cache so a cached snapshot
		// never understates it.
		snap.AgeMinutes = md.AgeMinutes
		if md.AgeMinutes != domain.NoData && !md.FetchedAt.IsZero() {
			snap.AgeMinutes = md.AgeMinutes + now.Sub(md.FetchedAt).Minutes()
		}
	}

	hd, ok := s.holderCache.get(mint, now)
	if !ok {
		var err error
		hd, err = s.holder.Report(ctx, mint)
		if err != nil {
			s.log.WithError(err).WithField("mint", mint).Debug("holder data unavailable")
			hd = nil
		} else {
			s.holderCache.put(mint, hd, now)
		}
	}
	if hd != nil {
		snap.Top10HoldersPct = hd.Top10Pct
		snap.CreatorPct = hd.CreatorPct
		snap.HolderCount = hd.HolderCount
	}

	return snap
}
