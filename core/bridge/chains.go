package bridge

import (
	"github.com/pkg/errors"
)

type NativeCurrency struct {
	Name     string
	Symbol   string
	Decimals int
}

type Chain struct {
	ID             int64
	Name           string
	NativeCurrency NativeCurrency
	RPCURL         string
	ExplorerURL    string
}

var knownChains = map[int64]Chain{
	1: {
		ID:             1,
		Name:           "Ethereum",
		NativeCurrency: NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		RPCURL:         "https://cloudflare-eth.com",
		ExplorerURL:    "https://etherscan.io",
	},
	10: {
		ID:             10,
		Name:           "OP Mainnet",
		NativeCurrency: NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		RPCURL:         "https://mainnet.optimism.io",
		ExplorerURL:    "https://optimistic.etherscan.io",
	},
	56: {
		ID:             56,
		Name:           "BNB Smart Chain",
		NativeCurrency: NativeCurrency{Name: "BNB", Symbol: "BNB", Decimals: 18},
		RPCURL:         "https://rpc.ankr.com/bsc",
		ExplorerURL:    "https://bscscan.com",
	},
	137: {
		ID:             137,
		Name:           "Polygon",
		NativeCurrency: NativeCurrency{Name: "MATIC", Symbol: "MATIC", Decimals: 18},
		RPCURL:         "https://polygon-rpc.com",
		ExplorerURL:    "https://polygonscan.com",
	},
	42161: {
		ID:             42161,
		Name:           "Arbitrum One",
		NativeCurrency: NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		RPCURL:         "https://arb1.arbitrum.io/rpc",
		ExplorerURL:    "https://arbiscan.io",
	},
}

// LookupChain returns the definition of a supported chain.
func LookupChain(id int64) (Chain, error) {
	c, ok := knownChains[id]
	if !ok {
		return Chain{}, errors.Wrapf(ErrChainNotFound, "chain id %d", id)
	}
	return c, nil
}
