package bridge

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/evmbridge/sdk-go/core/contractsapi"
	"github.com/evmbridge/sdk-go/core/types"
	"github.com/evmbridge/sdk-go/core/util"
)

func parseAddress(s string) (common.Address, error) {
	addr, err := util.ParseAddress(s)
	if err != nil {
		return common.Address{}, errors.WithStack(err)
	}
	return addr, nil
}

// parseTransactionRequest decodes a host transaction request. Any gas the
// caller supplied is dropped; the wallet re-estimates it.
func parseTransactionRequest(txJSON string) (*TransactionRequest, error) {
	if !gjson.Valid(txJSON) {
		return nil, errors.Errorf("invalid transaction request: %s", txJSON)
	}

	var in types.TransactionInput
	if err := json.Unmarshal([]byte(txJSON), &in); err != nil {
		return nil, errors.Wrap(err, "decode transaction request")
	}

	req := &TransactionRequest{}
	if in.To != "" {
		to, err := parseAddress(in.To)
		if err != nil {
			return nil, err
		}
		req.To = &to
	}
	if in.From != "" {
		from, err := parseAddress(in.From)
		if err != nil {
			return nil, err
		}
		req.From = &from
	}
	if in.Value != nil {
		req.Value = in.Value.Big()
	}
	if in.Data != "" {
		data, err := hexutil.Decode(in.Data)
		if err != nil {
			return nil, errors.Wrap(err, "decode transaction data")
		}
		req.Data = data
	}
	return req, nil
}

func erc721Call(fn string) ContractCall {
	return ContractCall{ABI: contractsapi.ERC721ABI, FunctionName: fn}
}

func tokenOfOwnerByIndexCall() ContractCall {
	return ContractCall{ABI: contractsapi.TokenOfOwnerByIndexABI, FunctionName: "tokenOfOwnerByIndex"}
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func bigIntResult(out []any) (*big.Int, error) {
	v, err := contractsapi.BigIntResult(out)
	return v, errors.WithStack(err)
}

func ownerResult(out []any) (common.Address, error) {
	v, err := contractsapi.AddressResult(out)
	return v, errors.WithStack(err)
}
