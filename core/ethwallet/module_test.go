package ethwallet

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmbridge/sdk-go/core/bridge"
)

func TestBridgeModuleOverLocalKey(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	chain := &fakeChain{chainID: 1, balance: big.NewInt(250_000_000_000_000_000), gas: 21000}
	dialer := newFakeDialer(map[string]*fakeChain{"https://cloudflare-eth.com": chain})
	m := bridge.New(NewLibrary(key, WithDialer(dialer.dial), WithReceiptPolling(time.Millisecond, time.Second)))

	require.NoError(t, m.Configure(ctx, `{"projectId":"p","chainIds":[{"chainId":1}]}`, nil))

	acct, err := m.GetWalletAccount(ctx)
	require.NoError(t, err)
	assert.Contains(t, acct, addr.Hex())
	assert.NotContains(t, acct, "connector")

	bal, err := m.GetWalletMainBalance(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"decimals":18,"formatted":"0.25","symbol":"ETH","value":"250000000000000000"}`, bal)

	hash, err := m.SendTransaction(ctx, `{"to":"0x00000000000000000000000000000000000000bb","value":"1","gas":"5"}`, nil)
	require.NoError(t, err)
	require.Len(t, chain.sentTxs(), 1)
	assert.Equal(t, `"`+chain.sentTxs()[0].Hash().Hex()+`"`, hash)
	assert.Equal(t, uint64(21000), chain.sentTxs()[0].Gas())

	require.NoError(t, m.Close(ctx))
	assert.True(t, chain.closed.Load())
}

type callbackRecorder struct {
	mu    sync.Mutex
	calls map[string][][]json.RawMessage
}

func (r *callbackRecorder) InvokeMethod(_ context.Context, method string, args ...json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string][][]json.RawMessage{}
	}
	r.calls[method] = append(r.calls[method], args)
	return nil
}

func TestConfigureReportsConnection(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	dialer := newFakeDialer(map[string]*fakeChain{"https://cloudflare-eth.com": {chainID: 1}})
	m := bridge.New(NewLibrary(key, WithDialer(dialer.dial)))
	defer m.Close(ctx)

	target := &callbackRecorder{}
	require.NoError(t, m.Configure(ctx, `{"projectId":"p","chainIds":[{"chainId":1}]}`, target))

	target.mu.Lock()
	defer target.mu.Unlock()
	calls := target.calls["OnAccountChanged"]
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 2)

	var cur, prev string
	require.NoError(t, json.Unmarshal(calls[0][0], &cur))
	require.NoError(t, json.Unmarshal(calls[0][1], &prev))
	assert.Contains(t, cur, addr.Hex())
	assert.Contains(t, cur, `"status":"connected"`)
	assert.Contains(t, prev, `"address":null`)
}
