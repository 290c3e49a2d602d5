package health

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"solana-copy-trader/internal/domain"
)

// DexScreenerBaseURL is the public market-data API.
const DexScreenerBaseURL = "https://api.dexscreener.com"

// marketData is what the market-data service reports for a token's most
// liquid pair. Absent fields hold domain.NoData.
type marketData struct {
	MarketCapUSD  float64
	LiquidityUSD  float64
	Volume24hUSD  float64
	PriceChange1h float64
	Txns1h        int64
	AgeMinutes    float64
	FetchedAt     time.Time
}

// DexScreenerClient fetches token market data from DexScreener.
type DexScreenerClient struct {
	client *resty.Client
}

// NewDexScreenerClient creates a market-data client. Lookups are best-effort
// and cached upstream, so the timeout is short.
func NewDexScreenerClient(baseURL string, timeout time.Duration) *DexScreenerClient {
	return &DexScreenerClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(1),
	}
}

type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID       string        `json:"chainId"`
	MarketCap     float64       `json:"marketCap"`
	FDV           float64       `json:"fdv"`
	PairCreatedAt int64         `json:"pairCreatedAt"` // ms epoch
	PriceChange   dexChange     `json:"priceChange"`
	Liquidity     dexLiquidity  `json:"liquidity"`
	Volume        dexVolume     `json:"volume"`
	Txns          dexTxnWindows `json:"txns"`
}

type dexChange struct {
	H1 float64 `json:"h1"`
}

type dexLiquidity struct {
	USD float64 `json:"usd"`
}

type dexVolume struct {
	H24 float64 `json:"h24"`
}

type dexTxnWindows struct {
	H1 dexTxnCounts `json:"h1"`
}

type dexTxnCounts struct {
	Buys  int64 `json:"buys"`
	Sells int64 `json:"sells"`
}

// Token returns market data for the mint's most liquid Solana pair.
func (c *DexScreenerClient) Token(ctx context.Context, mint string) (*marketData, error) {
	var result dexPairsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/latest/dex/tokens/" + mint)
	if err != nil {
		return nil, fmt.Errorf("dexscreener request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("dexscreener status %d", resp.StatusCode())
	}

	var best *dexPair
	for i := range result.Pairs {
		p := &result.Pairs[i]
		if p.ChainID != "solana" {
			continue
		}
		if best == nil || p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no pairs for %s", mint)
	}

	md := &marketData{
		MarketCapUSD:  best.MarketCap,
		LiquidityUSD:  best.Liquidity.USD,
		Volume24hUSD:  best.Volume.H24,
		PriceChange1h: best.PriceChange.H1,
		Txns1h:        best.Txns.H1.Buys + best.Txns.H1.Sells,
		AgeMinutes:    domain.NoData,
		FetchedAt:     time.Now(),
	}
	if md.MarketCapUSD == 0 && best.FDV > 0 {
		md.MarketCapUSD = best.FDV
	}
	if best.PairCreatedAt > 0 {
		md.AgeMinutes = time.Since(time.UnixMilli(best.PairCreatedAt)).Minutes()
	}
	return md, nil
}
