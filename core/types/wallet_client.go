package types

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type WalletClient interface {
	// Configure configures the bridge. Every other call does this on first use.
	Configure(ctx context.Context) error
	// Disconnect terminates the active wallet session
	Disconnect(ctx context.Context) error
	// GetAccount returns the current account snapshot, nil when the bridge reports none
	GetAccount(ctx context.Context) (*AccountSnapshot, error)
	// GetBalance returns the native currency balance of the current account
	GetBalance(ctx context.Context) (*Balance, error)
	// GetERC20Balance returns the balance of the given fungible token
	GetERC20Balance(ctx context.Context, token common.Address) (*Balance, error)
	// GetBalanceOf returns the ERC-721 balance of the current account
	GetBalanceOf(ctx context.Context, contract common.Address) (*big.Int, error)
	// GetTokenOfOwnerByIndex returns the token id owned by the current account at index
	GetTokenOfOwnerByIndex(ctx context.Context, contract common.Address, index *big.Int) (*big.Int, error)
	// GetOwnerOf returns the owner of an ERC-721 token
	GetOwnerOf(ctx context.Context, contract common.Address, tokenID *big.Int) (string, error)
	// GetStakedTokens returns the token ids the current account has staked into stakeContract
	GetStakedTokens(ctx context.Context, contract, stakeContract common.Address) ([]*big.Int, error)
	// SendTransaction submits a transaction and returns its hash without waiting for confirmation
	SendTransaction(ctx context.Context, input TransactionInput) (string, error)
	// SignMessage signs a personal message with the current account
	SignMessage(ctx context.Context, message string) (string, error)
	// SwitchChainID asks the wallet to switch chains. Completion is reported through OnChainIDChanged.
	SwitchChainID(ctx context.Context, chainID int64) error
	/*
	 * events
	 */
	OnAccountChanged(handler func(AccountChangedEvent)) (unsubscribe func())
	OnChainIDChanged(handler func(ChainIDChangedEvent)) (unsubscribe func())
	OnTransactionConfirmed(handler func(TransactionConfirmedEvent)) (unsubscribe func())
	// Close releases the bridge module and the callback registration. Safe to call twice.
	Close() error
}
