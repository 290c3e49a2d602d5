package health

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RugCheckBaseURL is the public holder-distribution API.
const RugCheckBaseURL = "https://api.rugcheck.xyz"

// holderData summarizes a token's ownership distribution.
type holderData struct {
	Top10Pct    float64
	CreatorPct  float64
	HolderCount int64
}

// RugCheckClient fetches holder-distribution reports from RugCheck.
type RugCheckClient struct {
	client *resty.Client
}

// NewRugCheckClient creates a holder-distribution client.
func NewRugCheckClient(baseURL string, timeout time.Duration) *RugCheckClient {
	return &RugCheckClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(1),
	}
}

type rugCheckReport struct {
	TopHolders   []rugCheckHolder `json:"topHolders"`
	Creator      *rugCheckHolder  `json:"creator"`
	TotalHolders int64            `json:"totalHolders"`
}

type rugCheckHolder struct {
	Pct float64 `json:"pct"`
}

// Report returns the holder distribution for a mint.
func (c *RugCheckClient) Report(ctx context.Context, mint string) (*holderData, error) {
	var report rugCheckReport
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&report).
		Get(fmt.Sprintf("/v1/tokens/%s/report", mint))
	if err != nil {
		return nil, fmt.Errorf("rugcheck request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("rugcheck status %d", resp.StatusCode())
	}

	hd := &holderData{HolderCount: report.TotalHolders}
	for i, h := range report.TopHolders {
		if i >= 10 {
			break
		}
		hd.Top10Pct += h.Pct
	}
	if report.Creator != nil {
		hd.CreatorPct = report.Creator.Pct
	}
	return hd, nil
}
