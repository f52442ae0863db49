package ethwallet

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/types"
)

func notConnected() *types.WalletError {
	return types.NewWalletError(types.WalletErrorNotConnected, "connector not connected", "")
}

func accountNotFound(addr string) *types.WalletError {
	return types.NewWalletError(types.WalletErrorAccountNotFound,
		fmt.Sprintf("account %s not found on connector", addr), "")
}

// classifyRPCError turns node errors into wallet errors. Errors carrying
// revert data become execution_reverted with the data as details.
func classifyRPCError(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := types.AsWalletError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewWalletError(types.WalletErrorTimeout, op+": "+err.Error(), "")
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return types.NewWalletError(types.WalletErrorExecutionReverted, err.Error(), revertData(dataErr.ErrorData()))
	}
	return types.NewWalletError(types.WalletErrorLibrary, op+": "+err.Error(), "")
}

func revertData(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case []byte:
		return hexutil.Encode(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
