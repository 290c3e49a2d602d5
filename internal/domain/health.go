package domain

import "time"

// NoData marks a numeric health field the upstream source did not report.
// It is distinct from zero, which is a meaningful observed value.
const NoData = -1

// TokenHealthSnapshot is a point-in-time view of a token's market health,
// assembled from the market-data and holder-distribution services.
// Fields the source did not report hold NoData.
type TokenHealthSnapshot struct {
	Mint string

	// Market data.
	MarketCapUSD   float64
	LiquidityUSD   float64
	Volume24hUSD   float64
	PriceChange1h  float64 // percent
	Txns1h         int64
	AgeMinutes     float64 // adjusted for cache age on read

	// Holder distribution.
	Top10HoldersPct float64
	CreatorPct      float64
	HolderCount     int64

	FetchedAt time.Time
}

// AgeAdjusted returns the token age including time spent in cache, so a
// cached snapshot never reports a token younger than it is.
func (s *TokenHealthSnapshot) AgeAdjusted(now time.Time) float64 {
	if s.AgeMinutes == NoData {
		return NoData
	}
	return s.AgeMinutes + now.Sub(s.FetchedAt).Minutes()
}

// HasHolderData reports whether holder-distribution fields were populated.
func (s *TokenHealthSnapshot) HasHolderData() bool {
	return s.HolderCount != NoData
}
