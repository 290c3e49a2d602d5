package detector

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

const (
	testWallet = "Wallet1111111111111111111111111111111111111"
	testMint   = "Mint11111111111111111111111111111111111111"
	otherMint  = "Mint22222222222222222222222222222222222222"
)

func testDetector(opts ...Option) *Detector {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(logrus.NewEntry(log), opts...)
}

// buyTx is a generic-venue buy: the wallet spends 0.5 SOL plus fee and
// gains 1M base units of testMint.
func buyTx() *solana.Transaction {
	return &solana.Transaction{
		Signature: "sig-buy",
		BlockTime: 1700000000,
		Meta: &solana.TransactionMeta{
			Fee:          5000,
			PreBalances:  []int64{2_000_000_000, 10},
			PostBalances: []int64{1_499_995_000, 10},
			PreTokenBalances: []solana.TokenBalance{
				{AccountIndex: 1, Mint: testMint, Owner: testWallet, Amount: 0},
			},
			PostTokenBalances: []solana.TokenBalance{
				{AccountIndex: 1, Mint: testMint, Owner: testWallet, Amount: 1_000_000},
			},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, "TokenAccount"},
			Signers:     []string{testWallet},
		},
	}
}

func TestDetectBuy(t *testing.T) {
	ev := testDetector().Detect(buyTx(), testWallet)
	require.NotNil(t, ev)
	assert.Equal(t, domain.DirectionBuy, ev.Direction)
	assert.Equal(t, testMint, ev.TokenMint)
	assert.Equal(t, int64(500_005_000), ev.LamportsAmount)
	assert.Equal(t, int64(1_000_000), ev.TokenAmount)
	assert.Equal(t, domain.VenueUnknown, ev.Venue)
	assert.Equal(t, testWallet, ev.Wallet)
}

func TestDetectSell(t *testing.T) {
	tx := buyTx()
	tx.Meta.PreBalances = []int64{1_000_000_000, 10}
	tx.Meta.PostBalances = []int64{1_400_000_000, 10}
	tx.Meta.PreTokenBalances[0].Amount = 1_000_000
	tx.Meta.PostTokenBalances[0].Amount = 0

	ev := testDetector().Detect(tx, testWallet)
	require.NotNil(t, ev)
	assert.Equal(t, domain.DirectionSell, ev.Direction)
	assert.Equal(t, int64(400_000_000), ev.LamportsAmount)
	assert.Equal(t, int64(1_000_000), ev.TokenAmount)
}

func TestDetectRejectsFailedTransaction(t *testing.T) {
	tx := buyTx()
	tx.Meta.Err = map[string]interface{}{"InstructionError": []interface{}{}}
	assert.Nil(t, testDetector().Detect(tx, testWallet))
}

func TestDetectRejectsMultiTokenMove(t *testing.T) {
	tx := buyTx()
	tx.Meta.PostTokenBalances = append(tx.Meta.PostTokenBalances, solana.TokenBalance{
		AccountIndex: 2, Mint: otherMint, Owner: testWallet, Amount: 777,
	})
	assert.Nil(t, testDetector().Detect(tx, testWallet))
}

func TestDetectIgnoresNativeMintLegs(t *testing.T) {
	// WSOL and stablecoin deltas are the native side, not the token leg.
	tx := buyTx()
	tx.Meta.PostTokenBalances = append(tx.Meta.PostTokenBalances,
		solana.TokenBalance{AccountIndex: 3, Mint: WSOLMint, Owner: testWallet, Amount: 500_000_000},
		solana.TokenBalance{AccountIndex: 4, Mint: USDCMint, Owner: testWallet, Amount: 12_000_000},
	)
	ev := testDetector().Detect(tx, testWallet)
	require.NotNil(t, ev)
	assert.Equal(t, testMint, ev.TokenMint)
}

func TestDetectRejectsDust(t *testing.T) {
	tx := buyTx()
	tx.Meta.PostBalances = []int64{1_999_900_000, 10}
	assert.Nil(t, testDetector(WithMinLamports(1_000_000)).Detect(tx, testWallet))
}

func TestDetectRejectsAmbiguousSigns(t *testing.T) {
	// Token gained but SOL also gained: not a swap.
	tx := buyTx()
	tx.Meta.PostBalances = []int64{2_100_000_000, 10}
	assert.Nil(t, testDetector().Detect(tx, testWallet))
}

func TestDetectRejectsNoTokenMovement(t *testing.T) {
	tx := buyTx()
	tx.Meta.PostTokenBalances[0].Amount = 0
	assert.Nil(t, testDetector().Detect(tx, testWallet))
}

func TestDetectRejectsWalletAbsent(t *testing.T) {
	assert.Nil(t, testDetector().Detect(buyTx(), "SomeOtherWallet"))
}

func TestDetectNilInputs(t *testing.T) {
	d := testDetector()
	assert.Nil(t, d.Detect(nil, testWallet))
	assert.Nil(t, d.Detect(&solana.Transaction{}, testWallet))
}

func TestDetectPumpFunSignerHeuristic(t *testing.T) {
	// Pump.fun buys can leave the buyer's fresh token account without owner
	// metadata. The primary signer is attributed the delta.
	tx := buyTx()
	tx.Message.AccountKeys = append(tx.Message.AccountKeys, PumpFunProgramID)
	tx.Meta.PreTokenBalances[0].Owner = ""
	tx.Meta.PostTokenBalances[0].Owner = ""

	ev := testDetector().Detect(tx, testWallet)
	require.NotNil(t, ev)
	assert.Equal(t, domain.VenuePumpFun, ev.Venue)
	assert.Equal(t, domain.DirectionBuy, ev.Direction)
}

func TestDetectUnownedNotAttributedOffVenue(t *testing.T) {
	// Without the bonding-curve heuristic, ownerless token accounts are not
	// the wallet's.
	tx := buyTx()
	tx.Meta.PreTokenBalances[0].Owner = ""
	tx.Meta.PostTokenBalances[0].Owner = ""
	assert.Nil(t, testDetector().Detect(tx, testWallet))
}

func TestClassifyVenue(t *testing.T) {
	assert.Equal(t, domain.VenueJupiter, classifyVenue([]string{"x", JupiterV6ProgramID}))
	assert.Equal(t, domain.VenueRaydium, classifyVenue([]string{RaydiumCLMMProgramID}))
	assert.Equal(t, domain.VenueUnknown, classifyVenue([]string{"x", "y"}))
	// Pump.fun wins over an aggregator in the same transaction.
	assert.Equal(t, domain.VenuePumpFun, classifyVenue([]string{JupiterV6ProgramID, PumpFunProgramID}))
}
