package bridge

import (
	"context"

	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/types"
)

var (
	ErrNotConfigured = errors.New("attempted before configuration")
	ErrChainNotFound = errors.New("chain not found")
	ErrUnknownMethod = errors.New("unknown bridge method")
	ErrNoAccount     = errors.New("no connected account")
	ErrNoReadClient  = errors.New("no public client factory")
	ErrClosed        = errors.New("bridge module closed")
)

// classifySendError maps a submit failure to the wallet error taxonomy.
// Categorised library errors pass through untouched.
func classifySendError(err error) *types.WalletError {
	if we, ok := types.AsWalletError(err); ok {
		return we
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewWalletError(types.WalletErrorTimeout, err.Error(), "")
	}
	return types.NewWalletError(types.WalletErrorUnrecognized, err.Error(), "")
}

// classifyWaitError maps sign and confirmation failures: timeouts keep their
// detail, everything else becomes a generic library error.
func classifyWaitError(err error) *types.WalletError {
	we, ok := types.AsWalletError(err)
	switch {
	case ok && we.Kind == types.WalletErrorTimeout:
		return we
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewWalletError(types.WalletErrorTimeout, err.Error(), "")
	case ok:
		return types.NewWalletError(types.WalletErrorLibrary, we.Message, we.Details)
	default:
		return types.NewWalletError(types.WalletErrorLibrary, err.Error(), "")
	}
}
