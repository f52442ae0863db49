package walletclient

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/bridge/bridgetest"
	"github.com/evmbridge/sdk-go/core/types"
)

var (
	holder   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	receiver = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func newInProcessClient(t *testing.T, wallet *bridgetest.Wallet) (*Client, *bridgetest.Library) {
	t.Helper()
	lib := bridgetest.NewLibrary(wallet)
	module := bridge.New(lib)
	t.Cleanup(func() { _ = module.Close(context.Background()) })

	c, err := NewClient(NewInProcessRuntime(module), testOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, lib
}

func TestInProcessClient(t *testing.T) {
	ctx := context.Background()

	t.Run("account and balance", func(t *testing.T) {
		wallet := bridgetest.NewWallet(bridgetest.ConnectedAccount(holder, 1))
		wallet.TokenBalance = &bridge.TokenBalance{Decimals: 18, Symbol: "ETH", Value: big.NewInt(2_500_000_000_000_000_000)}
		c, lib := newInProcessClient(t, wallet)

		acct, err := c.GetAccount(ctx)
		require.NoError(t, err)
		require.NotNil(t, acct.Address)
		assert.Equal(t, holder.Hex(), *acct.Address)
		assert.Equal(t, types.AccountStatusConnected, acct.Status)

		bal, err := c.GetBalance(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2.5", bal.Formatted)
		assert.Equal(t, int64(2_500_000_000_000_000_000), bal.Value.Int64())

		assert.Equal(t, int64(1), lib.Created.Load())
	})

	t.Run("send transaction confirms through callback", func(t *testing.T) {
		wallet := bridgetest.NewWallet(bridgetest.ConnectedAccount(holder, 1))
		c, _ := newInProcessClient(t, wallet)

		confirmed := make(chan types.TransactionConfirmedEvent, 1)
		c.OnTransactionConfirmed(func(ev types.TransactionConfirmedEvent) { confirmed <- ev })

		hash, err := c.SendTransaction(ctx, types.TransactionInput{
			To:    receiver.Hex(),
			Value: types.BigIntFromInt64(1),
			Data:  "0x01",
			Gas:   types.BigIntFromInt64(1),
		})
		require.NoError(t, err)
		require.NotEmpty(t, hash)

		select {
		case ev := <-confirmed:
			require.NotNil(t, ev.Receipt)
			assert.Equal(t, hash, ev.Receipt.TransactionHash)
			assert.Equal(t, types.ReceiptStatusSuccess, ev.Receipt.Status)
			assert.Equal(t, "21000", ev.Receipt.GasUsed.String())
		case <-time.After(5 * time.Second):
			t.Fatal("no confirmation")
		}
	})

	t.Run("send failure is a wallet error", func(t *testing.T) {
		wallet := bridgetest.NewWallet(bridgetest.ConnectedAccount(holder, 1))
		wallet.SendFunc = func(context.Context, bridge.TransactionRequest) (common.Hash, error) {
			return common.Hash{}, types.NewWalletError(types.WalletErrorExecutionReverted, "execution reverted", "0xdead")
		}
		c, _ := newInProcessClient(t, wallet)

		_, err := c.SendTransaction(ctx, types.TransactionInput{To: receiver.Hex()})
		we, ok := types.AsWalletError(err)
		require.True(t, ok)
		assert.Equal(t, types.WalletErrorExecutionReverted, we.Kind)
		assert.Equal(t, "0xdead", we.Details)
	})

	t.Run("watchers raise events", func(t *testing.T) {
		wallet := bridgetest.NewWallet(bridgetest.ConnectedAccount(holder, 1))
		c, _ := newInProcessClient(t, wallet)

		accounts := make(chan types.AccountChangedEvent, 4)
		chains := make(chan types.ChainIDChangedEvent, 4)
		c.OnAccountChanged(func(ev types.AccountChangedEvent) { accounts <- ev })
		c.OnChainIDChanged(func(ev types.ChainIDChangedEvent) { chains <- ev })

		require.NoError(t, c.Configure(ctx))
		require.NoError(t, c.SwitchChainID(ctx, 137))

		select {
		case ev := <-chains:
			assert.Equal(t, types.ChainIDChangedEvent{Current: chainID(137), Previous: chainID(1)}, ev)
		case <-time.After(5 * time.Second):
			t.Fatal("no chain change")
		}

		require.NoError(t, c.Disconnect(ctx))
		select {
		case ev := <-accounts:
			require.NotNil(t, ev.Current)
			assert.Nil(t, ev.Current.Address)
			assert.True(t, ev.Current.IsDisconnected)
			require.NotNil(t, ev.Previous)
			assert.True(t, ev.Previous.HasAddress())
		case <-time.After(5 * time.Second):
			t.Fatal("no account change")
		}
	})

	t.Run("closed client", func(t *testing.T) {
		wallet := bridgetest.NewWallet(bridgetest.ConnectedAccount(holder, 1))
		c, _ := newInProcessClient(t, wallet)
		require.NoError(t, c.Configure(ctx))
		require.NoError(t, c.Close())

		_, err := c.GetAccount(ctx)
		assert.True(t, errors.Is(err, ErrClosed))
	})
}
