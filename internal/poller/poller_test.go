package poller

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/detector"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

const testWallet = "Wallet1111111111111111111111111111111111111"

// fakeClient serves canned signatures and transactions and counts fetches.
type fakeClient struct {
	sigs    []solana.SignatureInfo
	txs     map[string]*solana.Transaction
	fetched map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{txs: map[string]*solana.Transaction{}, fetched: map[string]int{}}
}

func (f *fakeClient) GetSignaturesForAddress(_ context.Context, _ string, _ *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return f.sigs, nil
}

func (f *fakeClient) GetTransaction(_ context.Context, sig string) (*solana.Transaction, error) {
	f.fetched[sig]++
	return f.txs[sig], nil
}

func (f *fakeClient) GetBalance(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeClient) SendTransaction(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeClient) ConfirmTransaction(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("not implemented")
}

func swapTx(sig string) *solana.Transaction {
	return &solana.Transaction{
		Signature: sig,
		BlockTime: 1700000000,
		Meta: &solana.TransactionMeta{
			PreBalances:  []int64{2_000_000_000, 10},
			PostBalances: []int64{1_500_000_000, 10},
			PreTokenBalances: []solana.TokenBalance{
				{AccountIndex: 1, Mint: "MintA", Owner: testWallet, Amount: 0},
			},
			PostTokenBalances: []solana.TokenBalance{
				{AccountIndex: 1, Mint: "MintA", Owner: testWallet, Amount: 1_000_000},
			},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, "TokenAccount"},
			Signers:     []string{testWallet},
		},
	}
}

func testPoller(client solana.Client, handler Handler) *Poller {
	log := logrus.New()
	log.SetOutput(io.Discard)
	entry := logrus.NewEntry(log)
	return New(client, detector.New(entry), handler, []string{testWallet}, entry, Options{})
}

func TestSeedNeverReplaysHistory(t *testing.T) {
	client := newFakeClient()
	client.sigs = []solana.SignatureInfo{{Signature: "old1"}, {Signature: "old2"}}
	client.txs["old1"] = swapTx("old1")
	client.txs["old2"] = swapTx("old2")

	var events []*domain.SwapEvent
	p := testPoller(client, func(_ context.Context, ev *domain.SwapEvent) error {
		events = append(events, ev)
		return nil
	})

	require.NoError(t, p.seed(context.Background()))
	p.pollAll(context.Background())

	assert.Empty(t, events)
	assert.Empty(t, client.fetched)
}

func TestPollDetectsNewSwapOnce(t *testing.T) {
	client := newFakeClient()
	client.sigs = []solana.SignatureInfo{{Signature: "old1"}}

	var events []*domain.SwapEvent
	p := testPoller(client, func(_ context.Context, ev *domain.SwapEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, p.seed(context.Background()))

	client.sigs = []solana.SignatureInfo{{Signature: "new1"}, {Signature: "old1"}}
	client.txs["new1"] = swapTx("new1")

	p.pollAll(context.Background())
	p.pollAll(context.Background())

	require.Len(t, events, 1)
	assert.Equal(t, "new1", events[0].Signature)
	assert.Equal(t, domain.DirectionBuy, events[0].Direction)
	assert.Equal(t, 1, client.fetched["new1"])
}

func TestPollMarksNonSwapSeen(t *testing.T) {
	client := newFakeClient()
	p := testPoller(client, func(context.Context, *domain.SwapEvent) error {
		t.Fatal("no event expected")
		return nil
	})
	require.NoError(t, p.seed(context.Background()))

	// A transfer with no token movement is fetched once, then never again.
	transfer := swapTx("xfer")
	transfer.Meta.PostTokenBalances[0].Amount = 0
	client.sigs = []solana.SignatureInfo{{Signature: "xfer"}}
	client.txs["xfer"] = transfer

	p.pollAll(context.Background())
	p.pollAll(context.Background())
	assert.Equal(t, 1, client.fetched["xfer"])
}

func TestPollSkipsFailedSignatures(t *testing.T) {
	client := newFakeClient()
	p := testPoller(client, func(context.Context, *domain.SwapEvent) error { return nil })
	require.NoError(t, p.seed(context.Background()))

	client.sigs = []solana.SignatureInfo{{Signature: "failed", Err: "InstructionError"}}
	p.pollAll(context.Background())
	assert.Empty(t, client.fetched)
}

func TestHandlerErrorDoesNotStopPolling(t *testing.T) {
	client := newFakeClient()
	p := testPoller(client, func(context.Context, *domain.SwapEvent) error {
		return errors.New("handler exploded")
	})
	require.NoError(t, p.seed(context.Background()))

	client.sigs = []solana.SignatureInfo{{Signature: "new1"}}
	client.txs["new1"] = swapTx("new1")
	p.pollAll(context.Background())

	// Next pass still runs and processes newer work.
	client.sigs = []solana.SignatureInfo{{Signature: "new2"}}
	client.txs["new2"] = swapTx("new2")
	p.pollAll(context.Background())
	assert.Equal(t, 1, client.fetched["new2"])
}

func TestEventsDeliveredOldestFirst(t *testing.T) {
	client := newFakeClient()
	p := testPoller(client, nil)
	require.NoError(t, p.seed(context.Background()))

	var order []string
	p.handler = func(_ context.Context, ev *domain.SwapEvent) error {
		order = append(order, ev.Signature)
		return nil
	}

	// RPC returns newest first.
	client.sigs = []solana.SignatureInfo{{Signature: "newest"}, {Signature: "older"}}
	client.txs["newest"] = swapTx("newest")
	client.txs["older"] = swapTx("older")

	p.pollAll(context.Background())
	assert.Equal(t, []string{"older", "newest"}, order)
}
