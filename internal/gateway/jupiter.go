package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// JupiterBaseURL is the public swap-routing API.
const JupiterBaseURL = "https://lite-api.jup.ag"

// WSOLMint is the wrapped-SOL mint, Jupiter's representation of the native
// side of a route.
const WSOLMint = "So11111111111111111111111111111111111111112"

// JupiterClient quotes and builds swaps through the Jupiter router.
type JupiterClient struct {
	client      *resty.Client
	slippageBps int
}

// NewJupiterClient creates a router client. Trade execution must not be
// abandoned mid-flight, so the timeout is generous.
func NewJupiterClient(baseURL string, slippageBps int, timeout time.Duration) *JupiterClient {
	return &JupiterClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
		slippageBps: slippageBps,
	}
}

// Quote is a priced route. Raw is passed back verbatim when building the
// swap transaction.
type Quote struct {
	InAmount  int64
	OutAmount int64
	Raw       json.RawMessage
}

type jupiterQuoteAmounts struct {
	InAmount  string `json:"inAmount"`
	OutAmount string `json:"outAmount"`
}

// GetQuote prices a swap of amount base units of inputMint into outputMint.
func (c *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount int64) (*Quote, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"inputMint":   inputMint,
			"outputMint":  outputMint,
			"amount":      strconv.FormatInt(amount, 10),
			"slippageBps": strconv.Itoa(c.slippageBps),
		}).
		Get("/swap/v1/quote")
	if err != nil {
		return nil, fmt.Errorf("jupiter quote: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("jupiter quote status %d: %s", resp.StatusCode(), resp.String())
	}

	var amounts jupiterQuoteAmounts
	if err := json.Unmarshal(resp.Body(), &amounts); err != nil {
		return nil, fmt.Errorf("jupiter quote decode: %w", err)
	}
	in, err := strconv.ParseInt(amounts.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("jupiter quote inAmount: %w", err)
	}
	out, err := strconv.ParseInt(amounts.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("jupiter quote outAmount: %w", err)
	}

	return &Quote{InAmount: in, OutAmount: out, Raw: json.RawMessage(resp.Body())}, nil
}

type jupiterSwapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports string          `json:"prioritizationFeeLamports"`
}

type jupiterSwapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// BuildSwap turns a quote into an unsigned base64-encoded transaction for
// userPublicKey.
func (c *JupiterClient) BuildSwap(ctx context.Context, quote *Quote, userPublicKey string) (string, error) {
	var result jupiterSwapResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(jupiterSwapRequest{
			QuoteResponse:             quote.Raw,
			UserPublicKey:             userPublicKey,
			WrapAndUnwrapSol:          true,
			DynamicComputeUnitLimit:   true,
			PrioritizationFeeLamports: "auto",
		}).
		SetResult(&result).
		Post("/swap/v1/swap")
	if err != nil {
		return "", fmt.Errorf("jupiter swap: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("jupiter swap status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.SwapTransaction == "" {
		return "", fmt.Errorf("jupiter swap returned no transaction")
	}
	return result.SwapTransaction, nil
}
