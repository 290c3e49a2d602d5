package config

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("COPY_WALLETS", testAddress(t))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Simulation)
	assert.True(t, cfg.CopySells)
	assert.True(t, cfg.CopyProportional)
	assert.True(t, cfg.TrustPumpFun)
	assert.Equal(t, 3, cfg.MaxPositions)
	assert.Equal(t, 0.5, cfg.CopyMaxSOL)
	assert.Equal(t, 0.05, cfg.CopyMinSOL)
	assert.Equal(t, 0.5, cfg.CopyBalancePct)
	assert.Equal(t, 100.0, cfg.TakeProfitPct)
	assert.Equal(t, 0.005, cfg.RugAbandonSOL)
	assert.Equal(t, 300, cfg.SlippageBps)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Empty(t, cfg.PostgresDSN)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("COPY_BALANCE_PCT", "25")
	t.Setenv("COPY_POLL_INTERVAL_MS", "1000")
	t.Setenv("MAX_POSITIONS", "5")
	t.Setenv("COPY_SELLS", "false")
	t.Setenv("SIMULATION", "0")
	t.Setenv("WALLET_PRIVATE_KEY_BASE58", "4wBq")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.CopyBalancePct)
	assert.Equal(t, "1s", cfg.PollInterval.String())
	assert.Equal(t, 5, cfg.MaxPositions)
	assert.False(t, cfg.CopySells)
	assert.False(t, cfg.Simulation)
}

func TestLoadMultipleWallets(t *testing.T) {
	setRequired(t)
	t.Setenv("COPY_WALLETS", testAddress(t)+" , "+testAddress(t))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.CopyWallets, 2)
}

func TestLoadMissingRPCURL(t *testing.T) {
	t.Setenv("RPC_URL", "")
	t.Setenv("COPY_WALLETS", testAddress(t))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC_URL")
}

func TestLoadMissingWallets(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("COPY_WALLETS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY_WALLETS")
}

func TestLoadLiveRequiresPrivateKey(t *testing.T) {
	setRequired(t)
	t.Setenv("SIMULATION", "false")
	t.Setenv("WALLET_PRIVATE_KEY_BASE58", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WALLET_PRIVATE_KEY_BASE58")
}

func TestLoadRejectsBadWallet(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("COPY_WALLETS", "not-a-wallet")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateAddress(t *testing.T) {
	require.NoError(t, ValidateAddress(testAddress(t)))

	// Wrong length.
	assert.Error(t, ValidateAddress(base58.Encode([]byte{1, 2, 3})))

	// Not base58 at all.
	assert.Error(t, ValidateAddress("0OIl"))
}

func TestEnvParsersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_FLOAT", "not-a-number")
	t.Setenv("SOME_INT", "1.5")

	assert.Equal(t, 2.5, envFloat("SOME_FLOAT", 2.5))
	assert.Equal(t, int64(7), envInt("SOME_INT", 7))
	assert.True(t, envBool("SOME_MISSING", true))
}
