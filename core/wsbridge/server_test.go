package wsbridge_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/bridge/bridgetest"
	"github.com/evmbridge/sdk-go/core/types"
	"github.com/evmbridge/sdk-go/core/walletclient"
	"github.com/evmbridge/sdk-go/core/wsbridge"
)

var holder = common.HexToAddress("0x00000000000000000000000000000000000000aa")

type harness struct {
	wallet  *bridgetest.Wallet
	modules atomic.Int64
	url     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{wallet: bridgetest.NewWallet(bridgetest.ConnectedAccount(holder, 1))}
	srv := httptest.NewServer(wsbridge.NewServer(func() *bridge.Module {
		h.modules.Inc()
		return bridge.New(bridgetest.NewLibrary(h.wallet))
	}, wsbridge.WithCallbackTimeout(2*time.Second)))
	t.Cleanup(srv.Close)
	h.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return h
}

func (h *harness) client(t *testing.T) *walletclient.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rt, err := walletclient.DialWebSocketRuntime(ctx, h.url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	c, err := walletclient.NewClient(rt, types.ConnectionOptions{
		ProjectID: "test-project",
		ChainIDs:  []types.ChainEntry{{ChainID: 1}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("calls round trip", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		acct, err := c.GetAccount(ctx)
		require.NoError(t, err)
		require.NotNil(t, acct.Address)
		assert.Equal(t, holder.Hex(), *acct.Address)

		sig, err := c.SignMessage(ctx, "hello")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sig, "0x"))

		assert.Equal(t, int64(1), h.modules.Load())
	})

	t.Run("bridge errors reach the client", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		_, err := c.GetBalance(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no balance")
	})

	t.Run("transaction confirmation is called back", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		confirmed := make(chan types.TransactionConfirmedEvent, 1)
		c.OnTransactionConfirmed(func(ev types.TransactionConfirmedEvent) { confirmed <- ev })

		hash, err := c.SendTransaction(ctx, types.TransactionInput{
			To:   "0x00000000000000000000000000000000000000bb",
			Data: "0xabcd",
		})
		require.NoError(t, err)

		select {
		case ev := <-confirmed:
			require.NotNil(t, ev.Receipt)
			assert.Equal(t, hash, ev.Receipt.TransactionHash)
			assert.Equal(t, types.ReceiptStatusSuccess, ev.Receipt.Status)
		case <-ctx.Done():
			t.Fatal("no confirmation")
		}
	})

	t.Run("chain watcher is called back", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		chains := make(chan types.ChainIDChangedEvent, 1)
		c.OnChainIDChanged(func(ev types.ChainIDChangedEvent) { chains <- ev })

		require.NoError(t, c.SwitchChainID(ctx, 10))
		select {
		case ev := <-chains:
			require.NotNil(t, ev.Current)
			require.NotNil(t, ev.Previous)
			assert.Equal(t, int64(10), *ev.Current)
			assert.Equal(t, int64(1), *ev.Previous)
		case <-ctx.Done():
			t.Fatal("no chain change")
		}
	})

	t.Run("one module per connection", func(t *testing.T) {
		h := newHarness(t)
		a, b := h.client(t), h.client(t)

		require.NoError(t, a.Configure(ctx))
		require.NoError(t, b.Configure(ctx))
		assert.Equal(t, int64(2), h.modules.Load())
	})
}
