package contractsapi

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BigIntResult extracts a single uint256 output from an unpacked call result.
func BigIntResult(out []any) (*big.Int, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int output, got %T", out[0])
	}
	return v, nil
}

// AddressResult extracts a single address output from an unpacked call result.
func AddressResult(out []any) (common.Address, error) {
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("expected 1 output, got %d", len(out))
	}
	v, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("expected address output, got %T", out[0])
	}
	return v, nil
}

// Uint8Result extracts a single uint8 output, as returned by ERC-20 decimals().
func Uint8Result(out []any) (uint8, error) {
	if len(out) != 1 {
		return 0, fmt.Errorf("expected 1 output, got %d", len(out))
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("expected uint8 output, got %T", out[0])
	}
	return v, nil
}

// StringResult extracts a single string output.
func StringResult(out []any) (string, error) {
	if len(out) != 1 {
		return "", fmt.Errorf("expected 1 output, got %d", len(out))
	}
	v, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("expected string output, got %T", out[0])
	}
	return v, nil
}
