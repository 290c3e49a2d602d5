package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// PumpPortalBaseURL is the public bonding-curve trade API.
const PumpPortalBaseURL = "https://pumpportal.fun"

// PumpPortalClient builds pump.fun trades via PumpPortal's local-signing
// endpoint, which returns an unsigned serialized transaction.
type PumpPortalClient struct {
	client         *resty.Client
	slippagePct    float64
	priorityFeeSOL float64
}

// NewPumpPortalClient creates a bonding-curve trade client.
func NewPumpPortalClient(baseURL string, slippageBps int, priorityFeeSOL float64, timeout time.Duration) *PumpPortalClient {
	return &PumpPortalClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
		slippagePct:    float64(slippageBps) / 100,
		priorityFeeSOL: priorityFeeSOL,
	}
}

type pumpPortalRequest struct {
	PublicKey        string  `json:"publicKey"`
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	Amount           float64 `json:"amount"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Slippage         float64 `json:"slippage"`
	PriorityFee      float64 `json:"priorityFee"`
	Pool             string  `json:"pool"`
}

// BuildBuy returns an unsigned base64 transaction buying mint with solAmount
// of SOL.
func (c *PumpPortalClient) BuildBuy(ctx context.Context, publicKey, mint string, solAmount float64) (string, error) {
	return c.build(ctx, pumpPortalRequest{
		PublicKey:        publicKey,
		Action:           "buy",
		Mint:             mint,
		Amount:           solAmount,
		DenominatedInSol: "true",
		Slippage:         c.slippagePct,
		PriorityFee:      c.priorityFeeSOL,
		Pool:             "pump",
	})
}

// BuildSell returns an unsigned base64 transaction selling tokenAmount base
// units of mint.
func (c *PumpPortalClient) BuildSell(ctx context.Context, publicKey, mint string, tokenAmount int64) (string, error) {
	return c.build(ctx, pumpPortalRequest{
		PublicKey:        publicKey,
		Action:           "sell",
		Mint:             mint,
		Amount:           float64(tokenAmount),
		DenominatedInSol: "false",
		Slippage:         c.slippagePct,
		PriorityFee:      c.priorityFeeSOL,
		Pool:             "pump",
	})
}

func (c *PumpPortalClient) build(ctx context.Context, req pumpPortalRequest) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/trade-local")
	if err != nil {
		return "", fmt.Errorf("pumpportal %s: %w", req.Action, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("pumpportal %s status %d: %s", req.Action, resp.StatusCode(), resp.String())
	}
	// The endpoint responds with raw transaction bytes.
	return base64.StdEncoding.EncodeToString(resp.Body()), nil
}
