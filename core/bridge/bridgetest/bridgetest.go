// Package bridgetest provides an in-memory wallet library for exercising a
// bridge.Module without a chain.
package bridgetest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/evmbridge/sdk-go/core/bridge"
)

// Library hands out its Wallet and counts how often it was asked to.
type Library struct {
	Wallet  *Wallet
	Created atomic.Int64
}

var _ bridge.Library = (*Library)(nil)

func NewLibrary(w *Wallet) *Library {
	return &Library{Wallet: w}
}

func (l *Library) CreateConfig(context.Context, bridge.WalletConfig) (bridge.Wallet, error) {
	l.Created.Inc()
	return l.Wallet, nil
}

// Wallet is a scripted bridge.Wallet. The Func fields override the defaults.
type Wallet struct {
	mu              sync.Mutex
	account         bridge.Account
	accountWatchers []func(current, previous bridge.Account)
	chainWatchers   []func(current, previous int64)

	TokenBalance *bridge.TokenBalance

	SendFunc func(ctx context.Context, req bridge.TransactionRequest) (common.Hash, error)
	WaitFunc func(ctx context.Context, req bridge.ReceiptRequest) (*bridge.Receipt, error)
	SignFunc func(ctx context.Context, req bridge.SignRequest) (string, error)
	ReadFunc func(ctx context.Context, call bridge.ContractCall) ([]any, error)
}

var _ bridge.Wallet = (*Wallet)(nil)

// ConnectedAccount is a connected account at addr on chainID.
func ConnectedAccount(addr common.Address, chainID int64) bridge.Account {
	return bridge.Account{
		Address:     &addr,
		Addresses:   []common.Address{addr},
		ChainID:     &chainID,
		IsConnected: true,
		Status:      "connected",
	}
}

func NewWallet(account bridge.Account) *Wallet {
	return &Wallet{account: account}
}

func (w *Wallet) Reconnect(context.Context) error { return nil }

func (w *Wallet) CreateModal(context.Context, bridge.ModalConfig) error { return nil }

func (w *Wallet) Disconnect(context.Context) error {
	w.SetAccount(bridge.Account{IsDisconnected: true, Status: "disconnected"})
	return nil
}

func (w *Wallet) Account(context.Context) (bridge.Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.account, nil
}

// SetAccount replaces the account and notifies account watchers.
func (w *Wallet) SetAccount(a bridge.Account) {
	w.mu.Lock()
	prev := w.account
	w.account = a
	watchers := append([]func(current, previous bridge.Account){}, w.accountWatchers...)
	w.mu.Unlock()

	for _, fn := range watchers {
		fn(a, prev)
	}
}

func (w *Wallet) Balance(_ context.Context, req bridge.BalanceRequest) (*bridge.TokenBalance, error) {
	if w.TokenBalance == nil {
		return nil, errors.Errorf("no balance for %s", req.Address.Hex())
	}
	return w.TokenBalance, nil
}

func (w *Wallet) PrepareTransactionRequest(_ context.Context, req bridge.TransactionRequest) (*bridge.TransactionRequest, error) {
	req.Gas = 21000
	return &req, nil
}

func (w *Wallet) SendTransaction(ctx context.Context, req bridge.TransactionRequest) (common.Hash, error) {
	if w.SendFunc != nil {
		return w.SendFunc(ctx, req)
	}
	return crypto.Keccak256Hash(req.Data), nil
}

func (w *Wallet) WaitForTransactionReceipt(ctx context.Context, req bridge.ReceiptRequest) (*bridge.Receipt, error) {
	if w.WaitFunc != nil {
		return w.WaitFunc(ctx, req)
	}
	return &bridge.Receipt{
		TxHash:      req.Hash,
		BlockNumber: big.NewInt(1),
		GasUsed:     21000,
		Status:      "success",
	}, nil
}

func (w *Wallet) SignMessage(ctx context.Context, req bridge.SignRequest) (string, error) {
	if w.SignFunc != nil {
		return w.SignFunc(ctx, req)
	}
	return "0x" + common.Bytes2Hex(crypto.Keccak256([]byte(req.Message))), nil
}

func (w *Wallet) ReadContract(ctx context.Context, call bridge.ContractCall) ([]any, error) {
	if w.ReadFunc != nil {
		return w.ReadFunc(ctx, call)
	}
	return nil, errors.Errorf("unexpected read of %s", call.FunctionName)
}

func (w *Wallet) WatchAccount(onChange func(current, previous bridge.Account)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accountWatchers = append(w.accountWatchers, onChange)
	return func() {}
}

func (w *Wallet) WatchChainID(onChange func(current, previous int64)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainWatchers = append(w.chainWatchers, onChange)
	return func() {}
}

// SwitchChain moves the account to chainID and notifies chain watchers.
func (w *Wallet) SwitchChain(_ context.Context, chainID int64) error {
	w.mu.Lock()
	var prev int64
	if w.account.ChainID != nil {
		prev = *w.account.ChainID
	}
	id := chainID
	w.account.ChainID = &id
	watchers := append([]func(current, previous int64){}, w.chainWatchers...)
	w.mu.Unlock()

	for _, fn := range watchers {
		fn(chainID, prev)
	}
	return nil
}
