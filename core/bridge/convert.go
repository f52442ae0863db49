package bridge

import (
	"encoding/json"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/types"
	"github.com/evmbridge/sdk-go/core/util"
)

// Snapshot drops the connector and renders addresses as hex.
func (a Account) Snapshot() types.AccountSnapshot {
	snap := types.AccountSnapshot{
		Address:        util.TransformOrNil(a.Address, common.Address.Hex),
		ChainID:        a.ChainID,
		IsConnected:    a.IsConnected,
		IsConnecting:   a.IsConnecting,
		IsDisconnected: a.IsDisconnected,
		IsReconnecting: a.IsReconnecting,
		Status:         types.AccountStatus(a.Status),
	}
	if a.Addresses != nil {
		snap.Addresses = util.AddressesToStrings(a.Addresses)
	}
	return snap
}

func (a Account) hasAddress() bool {
	return a.Address != nil && *a.Address != (common.Address{})
}

func (b *TokenBalance) snapshot() types.BalanceSnapshot {
	snap := types.BalanceSnapshot{
		Decimals:  b.Decimals,
		Formatted: b.Formatted,
		Symbol:    b.Symbol,
		Value:     *types.NewBigInt(b.Value),
	}
	if snap.Formatted == "" {
		snap.Formatted = util.FormatUnits(b.Value, b.Decimals)
	}
	return snap
}

// ToTransactionReceipt normalises a library receipt for the boundary: status
// becomes 1 or 0 and big integers become decimal strings.
func (r *Receipt) ToTransactionReceipt() types.TransactionReceipt {
	out := types.TransactionReceipt{
		TransactionHash:   r.TxHash.Hex(),
		TransactionIndex:  r.TransactionIndex,
		BlockHash:         r.BlockHash.Hex(),
		BlockNumber:       *types.NewBigInt(r.BlockNumber),
		From:              r.From.Hex(),
		To:                util.TransformOrNil(r.To, common.Address.Hex),
		ContractAddress:   util.TransformOrNil(r.ContractAddress, common.Address.Hex),
		CumulativeGasUsed: *types.BigIntFromInt64(0),
		GasUsed:           *types.BigIntFromInt64(0),
		EffectiveGasPrice: *types.NewBigInt(r.EffectiveGasPrice),
		Type:              "0x" + strconv.FormatUint(uint64(r.Type), 16),
		Status:            types.NormalizeReceiptStatus(r.Status),
		LogsBloom:         hexutil.Encode(r.LogsBloom),
		Logs:              make([]types.ReceiptLog, 0, len(r.Logs)),
	}
	out.CumulativeGasUsed.SetUint64(r.CumulativeGasUsed)
	out.GasUsed.SetUint64(r.GasUsed)
	for _, l := range r.Logs {
		if l == nil {
			continue
		}
		topics := make([]string, len(l.Topics))
		for i, t := range l.Topics {
			topics[i] = t.Hex()
		}
		entry := types.ReceiptLog{
			Address:         l.Address.Hex(),
			Topics:          topics,
			Data:            hexutil.Encode(l.Data),
			TransactionHash: l.TxHash.Hex(),
			LogIndex:        l.Index,
			Removed:         l.Removed,
		}
		entry.BlockNumber.SetUint64(l.BlockNumber)
		out.Logs = append(out.Logs, entry)
	}
	return out
}

func marshalString(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(raw), nil
}
