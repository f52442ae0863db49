package bridge

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmbridge/sdk-go/core/boundary"
)

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	m, lib, wallet := newTestModule(t)

	reg := boundary.NewRegistry()
	ref := boundary.NewObjectRef(newRecordingTarget())
	reg.Register(ref)

	args, err := boundary.EncodeArgs(testOptions, ref)
	require.NoError(t, err)

	res, err := m.Dispatch(ctx, MethodConfigure, args, reg)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, int64(1), lib.created.Load())

	t.Run("account", func(t *testing.T) {
		res, err := m.Dispatch(ctx, MethodGetWalletAccount, nil, reg)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Contains(t, *res, testAccountAddr.Hex())
	})

	t.Run("big integer arguments", func(t *testing.T) {
		var got *big.Int
		wallet.readFunc = func(_ context.Context, call ContractCall) ([]any, error) {
			got = call.Args[1].(*big.Int)
			return []any{big.NewInt(1)}, nil
		}

		args, err := boundary.EncodeArgs(testContract.Hex(), "340282366920938463463374607431768211456")
		require.NoError(t, err)
		res, err := m.Dispatch(ctx, MethodGetTokenOfOwnerByIndex, args, reg)
		require.NoError(t, err)
		assert.Equal(t, `"1"`, *res)
		assert.Equal(t, "340282366920938463463374607431768211456", got.String())
	})

	t.Run("owner of", func(t *testing.T) {
		wallet.readFunc = func(context.Context, ContractCall) ([]any, error) {
			return []any{common.HexToAddress("0x01")}, nil
		}
		args, err := boundary.EncodeArgs(testContract.Hex(), 7)
		require.NoError(t, err)
		res, err := m.Dispatch(ctx, MethodGetOwnerOf, args, reg)
		require.NoError(t, err)
		assert.Equal(t, `"`+common.HexToAddress("0x01").Hex()+`"`, *res)
	})

	t.Run("switch chain", func(t *testing.T) {
		args, err := boundary.EncodeArgs(int64(10))
		require.NoError(t, err)
		res, err := m.Dispatch(ctx, MethodSwitchChainID, args, reg)
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("send requires a callback reference", func(t *testing.T) {
		args, err := boundary.EncodeArgs(`{"to":"0x00000000000000000000000000000000000000bb"}`, "not a ref")
		require.NoError(t, err)
		_, err = m.Dispatch(ctx, MethodSendTransaction, args, reg)
		require.Error(t, err)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := m.Dispatch(ctx, "selfDestruct", nil, reg)
		assert.True(t, errors.Is(err, ErrUnknownMethod))
	})
}

func TestLookupChain(t *testing.T) {
	for _, id := range []int64{1, 10, 56, 137, 42161} {
		c, err := LookupChain(id)
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.NotEmpty(t, c.RPCURL)
	}

	_, err := LookupChain(999999)
	assert.True(t, errors.Is(err, ErrChainNotFound))
}
