package contractsapi

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/types"
)

type ContractTransactionInput struct {
	ABI      abi.ABI
	Method   string
	From     common.Address
	Contract common.Address
	Value    *big.Int
	Args     []any
}

// CreateContractTransactionInput ABI-encodes a contract call into a
// TransactionInput ready for SendTransaction. Gas is left for the wallet to estimate.
func CreateContractTransactionInput(input ContractTransactionInput) (types.TransactionInput, error) {
	if input.Method == "" {
		return types.TransactionInput{}, errors.New("method is required")
	}
	if input.Contract == (common.Address{}) {
		return types.TransactionInput{}, errors.New("contract address is required")
	}

	data, err := input.ABI.Pack(input.Method, input.Args...)
	if err != nil {
		return types.TransactionInput{}, errors.Wrapf(err, "pack %s", input.Method)
	}

	tx := types.TransactionInput{
		To:   input.Contract.Hex(),
		Data: hexutil.Encode(data),
	}
	if input.From != (common.Address{}) {
		tx.From = input.From.Hex()
	}
	if input.Value != nil {
		tx.Value = types.NewBigInt(input.Value)
	}
	return tx, nil
}
