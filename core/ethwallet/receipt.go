package ethwallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/types"
)

// WaitForTransactionReceipt polls until the transaction is mined with the
// requested confirmations. It gives up with a timeout wallet error after the
// library's receipt timeout.
func (w *Wallet) WaitForTransactionReceipt(ctx context.Context, req bridge.ReceiptRequest) (*bridge.Receipt, error) {
	client, chainID, err := w.client(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}
	confirmations := req.Confirmations
	if confirmations == 0 {
		confirmations = 1
	}

	ctx, cancel := context.WithTimeout(ctx, w.lib.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(w.lib.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.confirmedReceipt(ctx, client, req.Hash, confirmations)
		switch {
		case err != nil && ctx.Err() == nil:
			return nil, classifyRPCError(err, "receipt")
		case receipt != nil:
			return w.toBridgeReceipt(ctx, client, chainID, receipt), nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, types.NewWalletError(types.WalletErrorTimeout,
					"timed out while waiting for transaction receipt",
					fmt.Sprintf("hash %s not confirmed after %s", req.Hash.Hex(), w.lib.receiptTimeout))
			}
			return nil, errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}

// confirmedReceipt returns nil, nil while the receipt is missing or not yet
// deep enough.
func (w *Wallet) confirmedReceipt(ctx context.Context, client ChainClient, hash common.Hash, confirmations uint64) (*gethtypes.Receipt, error) {
	receipt, err := client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if confirmations <= 1 {
		return receipt, nil
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	mined := receipt.BlockNumber.Uint64()
	if head < mined || head-mined+1 < confirmations {
		w.logger.Debug("waiting for confirmations",
			zap.String("hash", hash.Hex()),
			zap.Uint64("have", head-mined+1),
			zap.Uint64("want", confirmations))
		return nil, nil
	}
	return receipt, nil
}

func (w *Wallet) toBridgeReceipt(ctx context.Context, client ChainClient, chainID int64, r *gethtypes.Receipt) *bridge.Receipt {
	status := "reverted"
	if r.Status == gethtypes.ReceiptStatusSuccessful {
		status = "success"
	}
	out := &bridge.Receipt{
		TxHash:            r.TxHash,
		TransactionIndex:  r.TransactionIndex,
		BlockHash:         r.BlockHash,
		BlockNumber:       r.BlockNumber,
		CumulativeGasUsed: r.CumulativeGasUsed,
		GasUsed:           r.GasUsed,
		EffectiveGasPrice: r.EffectiveGasPrice,
		Type:              r.Type,
		Status:            status,
		LogsBloom:         r.Bloom.Bytes(),
		Logs:              r.Logs,
	}
	if r.ContractAddress != (common.Address{}) {
		addr := r.ContractAddress
		out.ContractAddress = &addr
	}

	tx, _, err := client.TransactionByHash(ctx, r.TxHash)
	if err != nil {
		w.logger.Debug("receipt without transaction", zap.String("hash", r.TxHash.Hex()), zap.Error(err))
		return out
	}
	out.To = tx.To()
	if from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(big.NewInt(chainID)), tx); err == nil {
		out.From = from
	}
	return out
}
