// Package bridge owns the wallet-client state on the browser side of the
// boundary. Every operation takes and returns JSON text; wallet failures are
// returned as serialised WalletError payloads rather than Go errors.
package bridge

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/boundary"
	"github.com/evmbridge/sdk-go/core/logging"
	"github.com/evmbridge/sdk-go/core/types"
)

// ModulePath is where hosts load the bridge module from.
const ModulePath = "./_content/evmbridge/bridge.js"

const (
	callbackAccountChanged       = "OnAccountChanged"
	callbackChainIDChanged       = "OnChainIdChanged"
	callbackTransactionConfirmed = "OnTransactionConfirmed"
)

var defaultIcons = []string{"https://avatars.githubusercontent.com/u/37784886"}

// ConfirmationFailureHandler observes failures of the detached wait that
// follows SendTransaction. It never reaches the caller of SendTransaction.
type ConfirmationFailureHandler func(hash common.Hash, err *types.WalletError)

// Module is one bridge session. It moves from unconfigured to configured once
// and stays there.
type Module struct {
	lib                   Library
	publicClients         PublicClientFactory
	logger                *zap.Logger
	onConfirmationFailure ConfirmationFailureHandler
	confirmations         uint64

	// held for the whole of Configure so a concurrent second call waits and no-ops
	configureMu sync.Mutex

	mu           sync.RWMutex
	configured   bool
	closed       bool
	wallet       Wallet
	account      Account
	chains       map[int64]Chain
	rpcOverrides map[int64]string
	unwatch      []func()

	bgCtx    context.Context
	bgCancel context.CancelFunc
	pending  sync.WaitGroup
}

type Option func(*Module)

func New(lib Library, options ...Option) *Module {
	m := &Module{
		lib:           lib,
		logger:        logging.Logger,
		confirmations: 1,
	}
	for _, option := range options {
		option(m)
	}
	m.logger = m.logger.Named("bridge")
	m.bgCtx, m.bgCancel = context.WithCancel(context.Background())
	return m
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

func WithPublicClients(factory PublicClientFactory) Option {
	return func(m *Module) {
		m.publicClients = factory
	}
}

func WithConfirmationFailureHandler(h ConfirmationFailureHandler) Option {
	return func(m *Module) {
		m.onConfirmationFailure = h
	}
}

func (m *Module) Configured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configured
}

// Configure builds the wallet client from optionsJSON and starts the account
// and chain watchers, which report to target. It is a no-op once configured.
// On failure the module stays unconfigured.
func (m *Module) Configure(ctx context.Context, optionsJSON string, target boundary.CallbackTarget) error {
	m.configureMu.Lock()
	defer m.configureMu.Unlock()

	m.mu.RLock()
	configured, closed := m.configured, m.closed
	m.mu.RUnlock()
	if closed {
		return errors.WithStack(ErrClosed)
	}
	if configured {
		return nil
	}

	var opts types.ConnectionOptions
	if err := json.Unmarshal([]byte(optionsJSON), &opts); err != nil {
		return errors.Wrap(err, "parse connection options")
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	chains := make([]Chain, 0, len(opts.ChainIDs))
	byID := make(map[int64]Chain, len(opts.ChainIDs))
	for _, entry := range opts.ChainIDs {
		c, err := LookupChain(entry.ChainID)
		if err != nil {
			return err
		}
		chains = append(chains, c)
		byID[c.ID] = c
	}
	if len(chains) == 0 {
		return errors.New("at least one chain is required")
	}
	overrides := opts.RPCOverrides()

	wallet, err := m.lib.CreateConfig(ctx, WalletConfig{
		ProjectID: opts.ProjectID,
		Metadata: AppMetadata{
			Name:        opts.Name,
			Description: opts.Description,
			URL:         opts.URL,
			Icons:       defaultIcons,
		},
		Chains:       chains,
		RPCOverrides: overrides,
		EnableEmail:  opts.EnableEmail,
	})
	if err != nil {
		return errors.Wrap(err, "create wallet config")
	}

	m.mu.Lock()
	m.wallet = wallet
	m.chains = byID
	m.rpcOverrides = overrides
	m.mu.Unlock()

	// Watchers go live before reconnect so the restored session is reported.
	unwatchAccount := wallet.WatchAccount(func(current, previous Account) {
		m.refreshAccount(m.bgCtx)
		cur, err := marshalString(current.Snapshot())
		if err != nil {
			m.logger.Error("encode account", zap.Error(err))
			return
		}
		prev, err := marshalString(previous.Snapshot())
		if err != nil {
			m.logger.Error("encode account", zap.Error(err))
			return
		}
		m.notify(target, callbackAccountChanged, cur, prev)
	})
	unwatchChain := wallet.WatchChainID(func(current, previous int64) {
		m.refreshAccount(m.bgCtx)
		m.notify(target, callbackChainIDChanged, current, previous)
	})

	if err := wallet.Reconnect(ctx); err != nil {
		m.logger.Warn("session reconnect failed", zap.Error(err))
	}

	err = wallet.CreateModal(ctx, ModalConfig{
		ProjectID:          opts.ProjectID,
		EnableAnalytics:    true,
		EnableOnramp:       true,
		TermsConditionsURL: opts.TermsConditionsURL,
		PrivacyPolicyURL:   opts.PrivacyPolicyURL,
		DefaultChain:       chains[0],
		ThemeMode:          opts.ThemeMode,
		ThemeVariables: map[string]string{
			"--w3m-color-mix": opts.BackgroundColor,
			"--w3m-accent":    opts.AccentColor,
		},
	})
	if err != nil {
		unwatchAccount()
		unwatchChain()
		m.mu.Lock()
		m.wallet = nil
		m.chains = nil
		m.rpcOverrides = nil
		m.account = Account{}
		m.mu.Unlock()
		if c, ok := wallet.(interface{ Close() }); ok {
			c.Close()
		}
		return errors.Wrap(err, "create modal")
	}

	m.mu.Lock()
	m.unwatch = []func(){unwatchAccount, unwatchChain}
	m.configured = true
	m.mu.Unlock()

	m.logger.Info("configured", zap.Int("chains", len(chains)), zap.Bool("email", opts.EnableEmail))
	return nil
}

func (m *Module) notify(target boundary.CallbackTarget, method string, args ...any) {
	if target == nil {
		return
	}
	raw, err := boundary.EncodeArgs(args...)
	if err != nil {
		m.logger.Error("encode callback", zap.String("method", method), zap.Error(err))
		return
	}
	if err := target.InvokeMethod(m.bgCtx, method, raw...); err != nil {
		m.logger.Error("callback failed", zap.String("method", method), zap.Error(err))
	}
}

func (m *Module) configuredWallet() (Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errors.WithStack(ErrClosed)
	}
	if !m.configured {
		return nil, errors.WithStack(ErrNotConfigured)
	}
	return m.wallet, nil
}

func (m *Module) refreshAccount(ctx context.Context) (Account, error) {
	m.mu.RLock()
	wallet := m.wallet
	m.mu.RUnlock()
	if wallet == nil {
		return Account{}, errors.WithStack(ErrNotConfigured)
	}

	acct, err := wallet.Account(ctx)
	if err != nil {
		m.logger.Warn("account refresh failed", zap.Error(err))
		return Account{}, errors.Wrap(err, "get account")
	}

	m.mu.Lock()
	m.account = acct
	m.mu.Unlock()
	return acct, nil
}

// currentAccount returns the cached account, refreshing it first if it has no address yet.
func (m *Module) currentAccount(ctx context.Context) (Account, error) {
	m.mu.RLock()
	acct := m.account
	m.mu.RUnlock()
	if acct.hasAddress() {
		return acct, nil
	}
	return m.refreshAccount(ctx)
}

func (m *Module) connectedAccount(ctx context.Context) (Account, error) {
	acct, err := m.currentAccount(ctx)
	if err != nil {
		return Account{}, err
	}
	if !acct.hasAddress() {
		return Account{}, errors.WithStack(ErrNoAccount)
	}
	return acct, nil
}

func (m *Module) DisconnectWallet(ctx context.Context) error {
	wallet, err := m.configuredWallet()
	if err != nil {
		return err
	}
	return errors.WithStack(wallet.Disconnect(ctx))
}

func (m *Module) GetWalletAccount(ctx context.Context) (string, error) {
	if _, err := m.configuredWallet(); err != nil {
		return "", err
	}
	acct, err := m.refreshAccount(ctx)
	if err != nil {
		return "", err
	}
	return marshalString(acct.Snapshot())
}

func (m *Module) GetWalletMainBalance(ctx context.Context) (string, error) {
	return m.balance(ctx, nil)
}

func (m *Module) GetBalanceOfERC20Token(ctx context.Context, tokenAddress string) (string, error) {
	token, err := parseAddress(tokenAddress)
	if err != nil {
		return "", err
	}
	return m.balance(ctx, &token)
}

func (m *Module) balance(ctx context.Context, token *common.Address) (string, error) {
	wallet, err := m.configuredWallet()
	if err != nil {
		return "", err
	}
	acct, err := m.connectedAccount(ctx)
	if err != nil {
		return "", err
	}

	bal, err := wallet.Balance(ctx, BalanceRequest{
		Address: *acct.Address,
		ChainID: acct.ChainID,
		Token:   token,
	})
	if err != nil {
		return "", errors.Wrap(err, "get balance")
	}
	return marshalString(bal.snapshot())
}

// SendTransaction submits txJSON and returns the hash as JSON. A detached
// wait reports the receipt to target once it has one confirmation.
func (m *Module) SendTransaction(ctx context.Context, txJSON string, target boundary.CallbackTarget) (string, error) {
	wallet, err := m.configuredWallet()
	if err != nil {
		return "", err
	}
	acct, err := m.currentAccount(ctx)
	if err != nil {
		return "", err
	}

	req, err := parseTransactionRequest(txJSON)
	if err != nil {
		return marshalString(types.NewWalletError(types.WalletErrorUnrecognized, err.Error(), ""))
	}
	req.ChainID = acct.ChainID

	prepared, err := wallet.PrepareTransactionRequest(ctx, *req)
	if err != nil {
		return marshalString(classifySendError(err))
	}

	submit := TransactionRequest{
		From:    prepared.From,
		To:      prepared.To,
		Value:   prepared.Value,
		Gas:     prepared.Gas,
		ChainID: acct.ChainID,
		Data:    prepared.Data,
	}
	if submit.To == nil {
		submit.To = req.To
	}

	hash, err := wallet.SendTransaction(ctx, submit)
	if err != nil {
		return marshalString(classifySendError(err))
	}

	m.detach(func() {
		m.awaitConfirmation(wallet, hash, acct.ChainID, target)
	})

	return marshalString(hash.Hex())
}

func (m *Module) awaitConfirmation(wallet Wallet, hash common.Hash, chainID *int64, target boundary.CallbackTarget) {
	receipt, err := wallet.WaitForTransactionReceipt(m.bgCtx, ReceiptRequest{
		Hash:          hash,
		ChainID:       chainID,
		Confirmations: m.confirmations,
	})
	if err != nil {
		we := classifyWaitError(err)
		m.logger.Warn("transaction confirmation failed",
			zap.String("hash", hash.Hex()),
			zap.String("kind", string(we.Kind)),
			zap.Error(we))
		if m.onConfirmationFailure != nil {
			m.onConfirmationFailure(hash, we)
		}
		return
	}

	payload, err := marshalString(receipt.ToTransactionReceipt())
	if err != nil {
		m.logger.Error("encode receipt", zap.String("hash", hash.Hex()), zap.Error(err))
		return
	}
	// the receipt crosses as JSON text, not as a nested object
	m.notify(target, callbackTransactionConfirmed, payload)
}

// SignMessage signs message with the current account and returns the
// signature as JSON, or a serialised WalletError.
func (m *Module) SignMessage(ctx context.Context, message string) (string, error) {
	wallet, err := m.configuredWallet()
	if err != nil {
		return "", err
	}
	acct, err := m.currentAccount(ctx)
	if err != nil {
		return "", err
	}

	sig, err := wallet.SignMessage(ctx, SignRequest{Message: message, Account: acct.Address})
	if err != nil {
		return marshalString(classifyWaitError(err))
	}
	return marshalString(sig)
}

func (m *Module) GetBalanceOfERC721Token(ctx context.Context, contractAddress string) (string, error) {
	return m.readBigInt(ctx, contractAddress, erc721Call("balanceOf"), func(acct Account) []any {
		return []any{*acct.Address}
	})
}

func (m *Module) GetTokenOfOwnerByIndex(ctx context.Context, contractAddress string, index *big.Int) (string, error) {
	return m.readBigInt(ctx, contractAddress, tokenOfOwnerByIndexCall(), func(acct Account) []any {
		return []any{*acct.Address, bigOrZero(index)}
	})
}

func (m *Module) GetOwnerOf(ctx context.Context, contractAddress string, tokenID *big.Int) (string, error) {
	out, err := m.read(ctx, contractAddress, erc721Call("ownerOf"), func(Account) []any {
		return []any{bigOrZero(tokenID)}
	})
	if err != nil {
		return "", err
	}
	owner, err := ownerResult(out)
	if err != nil {
		return "", err
	}
	return marshalString(owner.Hex())
}

func (m *Module) readBigInt(ctx context.Context, contractAddress string, call ContractCall, args func(Account) []any) (string, error) {
	out, err := m.read(ctx, contractAddress, call, args)
	if err != nil {
		return "", err
	}
	v, err := bigIntResult(out)
	if err != nil {
		return "", err
	}
	return marshalString(types.NewBigInt(v))
}

func (m *Module) read(ctx context.Context, contractAddress string, call ContractCall, args func(Account) []any) ([]any, error) {
	wallet, err := m.configuredWallet()
	if err != nil {
		return nil, err
	}
	contract, err := parseAddress(contractAddress)
	if err != nil {
		return nil, err
	}
	acct, err := m.connectedAccount(ctx)
	if err != nil {
		return nil, err
	}

	call.Address = contract
	call.ChainID = acct.ChainID
	call.Args = args(acct)

	out, err := wallet.ReadContract(ctx, call)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", call.FunctionName)
	}
	return out, nil
}

// SwitchChainID asks the wallet to switch chains and returns without waiting.
// The outcome arrives through the chain watcher.
func (m *Module) SwitchChainID(ctx context.Context, chainID int64) error {
	wallet, err := m.configuredWallet()
	if err != nil {
		return err
	}
	if _, err := m.currentAccount(ctx); err != nil {
		return err
	}

	m.detach(func() {
		if err := wallet.SwitchChain(m.bgCtx, chainID); err != nil {
			m.logger.Warn("switch chain failed", zap.Int64("chainId", chainID), zap.Error(err))
		}
	})
	return nil
}

// detach runs fn in the background unless the module is closed.
func (m *Module) detach(fn func()) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		fn()
	}()
}

// Close stops the watchers, cancels detached confirmation waits and waits for
// them to return, bounded by ctx. A wallet with a Close method is closed last.
// Every later call fails with ErrClosed.
func (m *Module) Close(ctx context.Context) error {
	m.configureMu.Lock()
	m.mu.Lock()
	m.closed = true
	unwatch := m.unwatch
	m.unwatch = nil
	wallet := m.wallet
	m.mu.Unlock()
	m.configureMu.Unlock()

	for _, fn := range unwatch {
		fn()
	}
	m.bgCancel()
	if c, ok := wallet.(interface{ Close() }); ok {
		defer c.Close()
	}

	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}
