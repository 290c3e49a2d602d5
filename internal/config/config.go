// Package config loads runtime configuration from the environment. A .env
// file is honored when present. Configuration errors are fatal at startup;
// nothing is reloaded at runtime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"filippo.io/edwards25519"
	"github.com/joho/godotenv"
	"github.com/mr-tron/base58"
)

// Config is the process configuration.
type Config struct {
	// Chain access.
	RPCURL       string
	RPCWSURL     string // optional; enables websocket wake-ups
	RPCRateLimit float64

	// Identity. The private key is required only in live mode.
	WalletPrivateKey string

	// Signal source.
	CopyWallets  []string
	PollInterval time.Duration
	SeedLimit    int
	PollLimit    int

	// Sizing and risk.
	CopyBalancePct   float64 // fraction of balance per copy, fixed mode
	CopyMaxSOL       float64
	CopyMinSOL       float64
	MinSignalSOL     float64 // ignore tracked-wallet buys below this
	CopySells        bool
	CopyProportional bool
	FeeReserveSOL    float64 // kept unspent for transaction fees
	MaxPositions     int

	// Exits.
	TakeProfitPct    float64
	TimeLimitMinutes float64
	TrailingStopPct  float64
	RugAbandonSOL    float64
	CheckInterval    time.Duration

	// Cooldowns.
	SellCooldown time.Duration
	CopyCooldown time.Duration

	// Token vetting.
	TrustPumpFun     bool
	MinTokenAgeMin   float64
	MinMarketCapUSD  float64
	MinLiquidityUSD  float64
	MinVolume24hUSD  float64
	MaxPriceChange1h float64
	MinTxns1h        int64
	MaxTop10Pct      float64
	MaxCreatorPct    float64
	MinHolders       int64

	// Execution.
	SlippageBps    int
	PriorityFeeSOL float64

	// Simulation.
	Simulation     bool
	SimStatePath   string
	SimStartingSOL float64

	// Persistence and observability.
	PostgresDSN string // empty selects the in-memory trade store
	MetricsAddr string // empty disables the metrics endpoint
	LogLevel    string

	// Service endpoints, overridable for testing.
	JupiterURL     string
	PumpPortalURL  string
	DexScreenerURL string
	RugCheckURL    string
}

// Load reads configuration from the environment, loading .env first if it
// exists, and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RPCURL:       os.Getenv("RPC_URL"),
		RPCWSURL:     os.Getenv("RPC_WS_URL"),
		RPCRateLimit: envFloat("RPC_RATE_LIMIT", 10),

		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY_BASE58"),

		CopyWallets:  splitList(os.Getenv("COPY_WALLETS")),
		PollInterval: time.Duration(envInt("COPY_POLL_INTERVAL_MS", 5000)) * time.Millisecond,
		SeedLimit:    int(envInt("SEED_SIGNATURE_LIMIT", 20)),
		PollLimit:    int(envInt("POLL_SIGNATURE_LIMIT", 5)),

		CopyBalancePct:   envFloat("COPY_BALANCE_PCT", 50) / 100,
		CopyMaxSOL:       envFloat("COPY_MAX_SOL", 0.5),
		CopyMinSOL:       envFloat("COPY_MIN_SOL", 0.05),
		MinSignalSOL:     envFloat("MIN_SIGNAL_SOL", 0.01),
		CopySells:        envBool("COPY_SELLS", true),
		CopyProportional: envBool("COPY_PROPORTIONAL", true),
		FeeReserveSOL:    envFloat("FEE_RESERVE_SOL", 0.05),
		MaxPositions:     int(envInt("MAX_POSITIONS", 3)),

		TakeProfitPct:    envFloat("TAKE_PROFIT_PCT", 100),
		TimeLimitMinutes: envFloat("TIME_LIMIT_MINUTES", 0),
		TrailingStopPct:  envFloat("TRAILING_STOP_PCT", 0),
		RugAbandonSOL:    envFloat("RUG_ABANDON_SOL", 0.005),
		CheckInterval:    time.Duration(envInt("POSITION_CHECK_INTERVAL_SEC", 60)) * time.Second,

		SellCooldown: time.Duration(envInt("SELL_COOLDOWN_SEC", 120)) * time.Second,
		CopyCooldown: time.Duration(envInt("COPY_COOLDOWN_SEC", 60)) * time.Second,

		TrustPumpFun:     envBool("TRUST_PUMPFUN", true),
		MinTokenAgeMin:   envFloat("MIN_TOKEN_AGE_MINUTES", 0),
		MinMarketCapUSD:  envFloat("MIN_MARKET_CAP_USD", 0),
		MinLiquidityUSD:  envFloat("MIN_LIQUIDITY_USD", 0),
		MinVolume24hUSD:  envFloat("MIN_VOLUME_24H_USD", 0),
		MaxPriceChange1h: envFloat("MAX_PRICE_CHANGE_1H_PCT", 0),
		MinTxns1h:        envInt("MIN_TXNS_1H", 0),
		MaxTop10Pct:      envFloat("MAX_TOP10_HOLDERS_PCT", 0),
		MaxCreatorPct:    envFloat("MAX_CREATOR_PCT", 0),
		MinHolders:       envInt("MIN_HOLDERS", 0),

		SlippageBps:    int(envInt("SLIPPAGE_BPS", 300)),
		PriorityFeeSOL: envFloat("PRIORITY_FEE_SOL", 0.001),

		Simulation:     envBool("SIMULATION", true),
		SimStatePath:   envString("SIM_STATE_PATH", "sim_state.json"),
		SimStartingSOL: envFloat("SIM_STARTING_SOL", 1.0),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		MetricsAddr: envString("METRICS_ADDR", ":9090"),
		LogLevel:    envString("LOG_LEVEL", "info"),

		JupiterURL:     envString("JUPITER_API_URL", "https://lite-api.jup.ag"),
		PumpPortalURL:  envString("PUMPPORTAL_API_URL", "https://pumpportal.fun"),
		DexScreenerURL: envString("DEXSCREENER_API_URL", "https://api.dexscreener.com"),
		RugCheckURL:    envString("RUGCHECK_API_URL", "https://api.rugcheck.xyz"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if len(c.CopyWallets) == 0 {
		return fmt.Errorf("COPY_WALLETS is required")
	}
	for _, w := range c.CopyWallets {
		if err := ValidateAddress(w); err != nil {
			return fmt.Errorf("COPY_WALLETS entry %q: %w", w, err)
		}
	}
	if !c.Simulation && c.WalletPrivateKey == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY_BASE58 is required outside simulation mode")
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("MAX_POSITIONS must be at least 1")
	}
	if c.CopyBalancePct <= 0 || c.CopyBalancePct > 1 {
		return fmt.Errorf("COPY_BALANCE_PCT must be in (0, 100]")
	}
	if c.CopyMaxSOL <= 0 {
		return fmt.Errorf("COPY_MAX_SOL must be positive")
	}
	if c.SlippageBps <= 0 {
		return fmt.Errorf("SLIPPAGE_BPS must be positive")
	}
	if c.Simulation && c.SimStartingSOL <= 0 {
		return fmt.Errorf("SIM_STARTING_SOL must be positive")
	}
	return nil
}

// ValidateAddress checks that s is a base58-encoded 32-byte ed25519 public
// key on the curve, i.e. a plausible wallet address rather than a PDA or a
// typo.
func ValidateAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("decoded to %d bytes, want 32", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("not on the ed25519 curve")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}
