package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Library is the wallet-connection library the bridge drives. CreateConfig is
// called at most once per successfully configured Module.
type Library interface {
	CreateConfig(ctx context.Context, cfg WalletConfig) (Wallet, error)
}

// Wallet is the configured wallet client. Failures that belong to the wallet
// error taxonomy should be returned as *types.WalletError; anything else is
// reported as unrecognized.
type Wallet interface {
	// Reconnect restores a previous session, if any.
	Reconnect(ctx context.Context) error
	// CreateModal initialises the connection modal.
	CreateModal(ctx context.Context, cfg ModalConfig) error
	Disconnect(ctx context.Context) error
	Account(ctx context.Context) (Account, error)
	Balance(ctx context.Context, req BalanceRequest) (*TokenBalance, error)
	// PrepareTransactionRequest estimates gas and fills defaults.
	PrepareTransactionRequest(ctx context.Context, req TransactionRequest) (*TransactionRequest, error)
	SendTransaction(ctx context.Context, req TransactionRequest) (common.Hash, error)
	// WaitForTransactionReceipt blocks until the transaction has the requested
	// confirmations or the library gives up.
	WaitForTransactionReceipt(ctx context.Context, req ReceiptRequest) (*Receipt, error)
	SignMessage(ctx context.Context, req SignRequest) (string, error)
	ReadContract(ctx context.Context, call ContractCall) ([]any, error)
	WatchAccount(onChange func(current, previous Account)) (unwatch func())
	WatchChainID(onChange func(current, previous int64)) (unwatch func())
	SwitchChain(ctx context.Context, chainID int64) error
}

// LogReader is the part of a chain client the staking query needs.
type LogReader interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error)
}

// PublicClientFactory opens read clients. rpcURL is the chain's override if
// one was configured, else its default endpoint.
type PublicClientFactory interface {
	LogReader(ctx context.Context, chain Chain, rpcURL string) (LogReader, error)
}

type AppMetadata struct {
	Name        string
	Description string
	URL         string
	Icons       []string
}

type WalletConfig struct {
	ProjectID    string
	Metadata     AppMetadata
	Chains       []Chain
	RPCOverrides map[int64]string
	EnableEmail  bool
}

type ModalConfig struct {
	ProjectID          string
	EnableAnalytics    bool
	EnableOnramp       bool
	TermsConditionsURL string
	PrivacyPolicyURL   string
	DefaultChain       Chain
	ThemeMode          string
	ThemeVariables     map[string]string
}

// Connector is the library's handle on the active wallet integration.
// It never crosses the boundary.
type Connector interface {
	ID() string
	Name() string
}

type Account struct {
	Address        *common.Address
	Addresses      []common.Address
	ChainID        *int64
	Connector      Connector
	IsConnected    bool
	IsConnecting   bool
	IsDisconnected bool
	IsReconnecting bool
	Status         string
}

type BalanceRequest struct {
	Address common.Address
	ChainID *int64
	// Token selects a fungible token; nil means the native currency.
	Token *common.Address
}

type TokenBalance struct {
	Decimals  int
	Formatted string
	Symbol    string
	Value     *big.Int
}

type TransactionRequest struct {
	From    *common.Address
	To      *common.Address
	Value   *big.Int
	Gas     uint64
	ChainID *int64
	Data    []byte
}

type ReceiptRequest struct {
	Hash          common.Hash
	ChainID       *int64
	Confirmations uint64
}

// Receipt is a receipt as the library reports it. Status is a label such as
// "success" or "reverted".
type Receipt struct {
	TxHash            common.Hash
	TransactionIndex  uint
	BlockHash         common.Hash
	BlockNumber       *big.Int
	From              common.Address
	To                *common.Address
	ContractAddress   *common.Address
	CumulativeGasUsed uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	Type              uint8
	Status            string
	LogsBloom         []byte
	Logs              []*gethtypes.Log
}

type SignRequest struct {
	Message string
	Account *common.Address
}

type ContractCall struct {
	Address      common.Address
	ChainID      *int64
	ABI          abi.ABI
	FunctionName string
	Args         []any
}
