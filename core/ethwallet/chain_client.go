// Package ethwallet implements the bridge wallet library on go-ethereum: a
// local secp256k1 key signs, and JSON-RPC endpoints serve chain state.
package ethwallet

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// ChainClient is the part of an RPC client the wallet uses.
// *ethclient.Client satisfies it.
type ChainClient interface {
	ethereum.ChainIDReader
	ethereum.BlockNumberReader
	ethereum.ChainStateReader
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.TransactionReader
	ethereum.TransactionSender
	ethereum.LogFilterer
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	Close()
}

var _ ChainClient = (*ethclient.Client)(nil)

// Dialer opens a ChainClient for an RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (ChainClient, error)

// DialRPC is the default Dialer.
func DialRPC(ctx context.Context, rpcURL string) (ChainClient, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", rpcURL)
	}
	return client, nil
}
