package bridge

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/boundary"
	"github.com/evmbridge/sdk-go/core/types"
)

// Names the module's operations are invoked by across the boundary.
const (
	MethodConfigure               = "configure"
	MethodDisconnectWallet        = "disconnectWallet"
	MethodGetWalletAccount        = "getWalletAccount"
	MethodGetWalletMainBalance    = "getWalletMainBalance"
	MethodGetBalanceOfERC20Token  = "getBalanceOfErc20Token"
	MethodSendTransaction         = "SendTransaction"
	MethodSignMessage             = "SignMessage"
	MethodGetBalanceOfERC721Token = "getBalanceOfErc721Token"
	MethodGetTokenOfOwnerByIndex  = "getTokenOfOwnerByIndex"
	MethodGetOwnerOf              = "getOwnerOf"
	MethodGetStakedTokens         = "getStakedTokens"
	MethodSwitchChainID           = "switchChainId"
)

// Dispatch invokes the operation named method with JSON arguments. Callback
// reference arguments are resolved through resolver. The result is the
// operation's JSON text, or nil for operations that return nothing.
func (m *Module) Dispatch(ctx context.Context, method string, args []json.RawMessage, resolver boundary.Resolver) (*string, error) {
	switch method {
	case MethodConfigure:
		options, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		target, err := boundary.TargetArg(ctx, resolver, args, 1)
		if err != nil {
			return nil, err
		}
		return nil, m.Configure(ctx, options, target)

	case MethodDisconnectWallet:
		return nil, m.DisconnectWallet(ctx)

	case MethodGetWalletAccount:
		return result(m.GetWalletAccount(ctx))

	case MethodGetWalletMainBalance:
		return result(m.GetWalletMainBalance(ctx))

	case MethodGetBalanceOfERC20Token:
		token, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return result(m.GetBalanceOfERC20Token(ctx, token))

	case MethodSendTransaction:
		tx, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		target, err := boundary.TargetArg(ctx, resolver, args, 1)
		if err != nil {
			return nil, err
		}
		return result(m.SendTransaction(ctx, tx, target))

	case MethodSignMessage:
		message, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return result(m.SignMessage(ctx, message))

	case MethodGetBalanceOfERC721Token:
		contract, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return result(m.GetBalanceOfERC721Token(ctx, contract))

	case MethodGetTokenOfOwnerByIndex:
		contract, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		index, err := boundary.Arg[types.BigInt](args, 1)
		if err != nil {
			return nil, err
		}
		return result(m.GetTokenOfOwnerByIndex(ctx, contract, index.Big()))

	case MethodGetOwnerOf:
		contract, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		tokenID, err := boundary.Arg[types.BigInt](args, 1)
		if err != nil {
			return nil, err
		}
		return result(m.GetOwnerOf(ctx, contract, tokenID.Big()))

	case MethodGetStakedTokens:
		contract, err := boundary.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		stake, err := boundary.Arg[string](args, 1)
		if err != nil {
			return nil, err
		}
		return result(m.GetStakedTokens(ctx, contract, stake))

	case MethodSwitchChainID:
		chainID, err := boundary.Arg[int64](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, m.SwitchChainID(ctx, chainID)
	}

	return nil, errors.Wrap(ErrUnknownMethod, method)
}

func result(s string, err error) (*string, error) {
	if err != nil {
		return nil, err
	}
	return &s, nil
}
