package types

import "math/big"

// BalanceSnapshot is the wire form of a native or token balance.
type BalanceSnapshot struct {
	Decimals  int    `json:"decimals"`
	Formatted string `json:"formatted"`
	Symbol    string `json:"symbol"`
	Value     BigInt `json:"value"`
}

// Balance is the decoded form handed to host code.
type Balance struct {
	Decimals  int
	Formatted string
	Symbol    string
	Value     *big.Int
}

func (s BalanceSnapshot) Balance() *Balance {
	return &Balance{
		Decimals:  s.Decimals,
		Formatted: s.Formatted,
		Symbol:    s.Symbol,
		Value:     s.Value.Big(),
	}
}
