package ethwallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/contractsapi"
	"github.com/evmbridge/sdk-go/core/util"
)

type localConnector struct{}

func (localConnector) ID() string   { return "local" }
func (localConnector) Name() string { return "Local key" }

// Wallet is a bridge.Wallet backed by a local key.
type Wallet struct {
	lib     *Library
	address common.Address
	logger  *zap.Logger

	chains       map[int64]bridge.Chain
	rpcURLs      map[int64]string
	defaultChain int64

	mu        sync.Mutex
	chainID   int64
	account   bridge.Account
	clients   map[int64]ChainClient
	modal     *bridge.ModalConfig
	nextWatch int
	accountWs map[int]func(current, previous bridge.Account)
	chainWs   map[int]func(current, previous int64)
}

var _ bridge.Wallet = (*Wallet)(nil)

// Address is the signing account.
func (w *Wallet) Address() common.Address {
	return w.address
}

func (w *Wallet) connectedAccount(chainID int64) bridge.Account {
	addr := w.address
	id := chainID
	return bridge.Account{
		Address:     &addr,
		Addresses:   []common.Address{addr},
		ChainID:     &id,
		Connector:   localConnector{},
		IsConnected: true,
		Status:      "connected",
	}
}

// Reconnect connects the local key on the current chain. Connecting an
// already connected wallet is a no-op.
func (w *Wallet) Reconnect(context.Context) error {
	w.mu.Lock()
	if w.account.IsConnected {
		w.mu.Unlock()
		return nil
	}
	prev := w.account
	w.account = w.connectedAccount(w.chainID)
	cur := w.account
	w.mu.Unlock()

	w.logger.Info("wallet connected", zap.String("address", w.address.Hex()), zap.Int64("chainId", *cur.ChainID))
	w.emitAccount(cur, prev)
	return nil
}

// CreateModal records the modal settings; a local key has no picker to show.
func (w *Wallet) CreateModal(_ context.Context, cfg bridge.ModalConfig) error {
	w.mu.Lock()
	w.modal = &cfg
	w.mu.Unlock()
	w.logger.Debug("modal configured",
		zap.Int64("defaultChain", cfg.DefaultChain.ID),
		zap.String("theme", cfg.ThemeMode))
	return nil
}

func (w *Wallet) Disconnect(context.Context) error {
	w.mu.Lock()
	if !w.account.IsConnected {
		w.mu.Unlock()
		return nil
	}
	prev := w.account
	w.account = bridge.Account{IsDisconnected: true, Status: "disconnected"}
	cur := w.account
	w.mu.Unlock()

	w.emitAccount(cur, prev)
	return nil
}

func (w *Wallet) Account(context.Context) (bridge.Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.account, nil
}

// client returns the RPC client for chainID, or the current chain when nil.
func (w *Wallet) client(ctx context.Context, chainID *int64) (ChainClient, int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.chainID
	if chainID != nil {
		id = *chainID
	}
	if c, ok := w.clients[id]; ok {
		return c, id, nil
	}
	url, ok := w.rpcURLs[id]
	if !ok {
		return nil, 0, errors.Wrapf(bridge.ErrChainNotFound, "chain %d", id)
	}
	c, err := w.lib.dial(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	w.clients[id] = c
	return c, id, nil
}

func (w *Wallet) Balance(ctx context.Context, req bridge.BalanceRequest) (*bridge.TokenBalance, error) {
	client, chainID, err := w.client(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}

	if req.Token == nil {
		value, err := client.BalanceAt(ctx, req.Address, nil)
		if err != nil {
			return nil, classifyRPCError(err, "balance")
		}
		native := w.chains[chainID].NativeCurrency
		return &bridge.TokenBalance{
			Decimals:  native.Decimals,
			Formatted: util.FormatUnits(value, native.Decimals),
			Symbol:    native.Symbol,
			Value:     value,
		}, nil
	}

	erc20 := func(method string, args ...any) ([]any, error) {
		return w.call(ctx, client, *req.Token, contractsapi.ERC20ABI, method, args...)
	}
	out, err := erc20("balanceOf", req.Address)
	if err != nil {
		return nil, err
	}
	value, err := contractsapi.BigIntResult(out)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if out, err = erc20("decimals"); err != nil {
		return nil, err
	}
	decimals, err := contractsapi.Uint8Result(out)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if out, err = erc20("symbol"); err != nil {
		return nil, err
	}
	symbol, err := contractsapi.StringResult(out)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &bridge.TokenBalance{
		Decimals:  int(decimals),
		Formatted: util.FormatUnits(value, int(decimals)),
		Symbol:    symbol,
		Value:     value,
	}, nil
}

func (w *Wallet) requireSigner(from *common.Address) error {
	w.mu.Lock()
	connected := w.account.IsConnected
	w.mu.Unlock()
	if !connected {
		return notConnected()
	}
	if from != nil && *from != w.address {
		return accountNotFound(from.Hex())
	}
	return nil
}

// PrepareTransactionRequest sets the sender and estimates gas.
func (w *Wallet) PrepareTransactionRequest(ctx context.Context, req bridge.TransactionRequest) (*bridge.TransactionRequest, error) {
	if err := w.requireSigner(req.From); err != nil {
		return nil, err
	}
	client, _, err := w.client(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}

	from := w.address
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    req.To,
		Value: req.Value,
		Data:  req.Data,
	})
	if err != nil {
		return nil, classifyRPCError(err, "estimate gas")
	}

	out := req
	out.From = &from
	out.Gas = gas
	return &out, nil
}

func (w *Wallet) SendTransaction(ctx context.Context, req bridge.TransactionRequest) (common.Hash, error) {
	if err := w.requireSigner(req.From); err != nil {
		return common.Hash{}, err
	}
	client, chainID, err := w.client(ctx, req.ChainID)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, classifyRPCError(err, "nonce")
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, classifyRPCError(err, "gas price")
	}
	gas := req.Gas
	if gas == 0 {
		prepared, err := w.PrepareTransactionRequest(ctx, req)
		if err != nil {
			return common.Hash{}, err
		}
		gas = prepared.Gas
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       req.To,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     req.Data,
	})
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(big.NewInt(chainID)), w.lib.key)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "sign transaction")
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, classifyRPCError(err, "send transaction")
	}

	w.logger.Info("transaction sent",
		zap.String("hash", signed.Hash().Hex()),
		zap.Int64("chainId", chainID),
		zap.Uint64("nonce", nonce))
	return signed.Hash(), nil
}

// SignMessage produces a personal_sign signature (EIP-191) with V of 27 or 28.
func (w *Wallet) SignMessage(_ context.Context, req bridge.SignRequest) (string, error) {
	if err := w.requireSigner(req.Account); err != nil {
		return "", err
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(req.Message)), w.lib.key)
	if err != nil {
		return "", errors.Wrap(err, "sign message")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func (w *Wallet) ReadContract(ctx context.Context, call bridge.ContractCall) ([]any, error) {
	client, _, err := w.client(ctx, call.ChainID)
	if err != nil {
		return nil, err
	}
	return w.call(ctx, client, call.Address, call.ABI, call.FunctionName, call.Args...)
}

func (w *Wallet) call(ctx context.Context, client ChainClient, contract common.Address, abi abiPacker, method string, args ...any) ([]any, error) {
	data, err := abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, classifyRPCError(err, method)
	}
	out, err := abi.Unpack(method, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	return out, nil
}

// abiPacker is satisfied by abi.ABI.
type abiPacker interface {
	Pack(name string, args ...any) ([]byte, error)
	Unpack(name string, data []byte) ([]any, error)
}

func (w *Wallet) WatchAccount(onChange func(current, previous bridge.Account)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.accountWs == nil {
		w.accountWs = make(map[int]func(current, previous bridge.Account))
	}
	id := w.nextWatch
	w.nextWatch++
	w.accountWs[id] = onChange
	return func() {
		w.mu.Lock()
		delete(w.accountWs, id)
		w.mu.Unlock()
	}
}

func (w *Wallet) WatchChainID(onChange func(current, previous int64)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.chainWs == nil {
		w.chainWs = make(map[int]func(current, previous int64))
	}
	id := w.nextWatch
	w.nextWatch++
	w.chainWs[id] = onChange
	return func() {
		w.mu.Lock()
		delete(w.chainWs, id)
		w.mu.Unlock()
	}
}

func (w *Wallet) emitAccount(cur, prev bridge.Account) {
	w.mu.Lock()
	watchers := make([]func(current, previous bridge.Account), 0, len(w.accountWs))
	for _, fn := range w.accountWs {
		watchers = append(watchers, fn)
	}
	w.mu.Unlock()
	for _, fn := range watchers {
		fn(cur, prev)
	}
}

func (w *Wallet) emitChain(cur, prev int64) {
	w.mu.Lock()
	watchers := make([]func(current, previous int64), 0, len(w.chainWs))
	for _, fn := range w.chainWs {
		watchers = append(watchers, fn)
	}
	w.mu.Unlock()
	for _, fn := range watchers {
		fn(cur, prev)
	}
}

// SwitchChain moves the wallet to one of its configured chains. The node must
// report the expected chain id.
func (w *Wallet) SwitchChain(ctx context.Context, chainID int64) error {
	client, _, err := w.client(ctx, &chainID)
	if err != nil {
		return err
	}
	reported, err := client.ChainID(ctx)
	if err != nil {
		return classifyRPCError(err, "chain id")
	}
	if reported.Int64() != chainID {
		return errors.Errorf("rpc for chain %d reports chain %d", chainID, reported.Int64())
	}

	w.mu.Lock()
	prevChain := w.chainID
	if prevChain == chainID {
		w.mu.Unlock()
		return nil
	}
	w.chainID = chainID
	prevAccount := w.account
	if w.account.IsConnected {
		w.account = w.connectedAccount(chainID)
	}
	curAccount := w.account
	w.mu.Unlock()

	w.emitChain(chainID, prevChain)
	if curAccount.IsConnected {
		w.emitAccount(curAccount, prevAccount)
	}
	return nil
}

// Close releases the RPC clients.
func (w *Wallet) Close() {
	w.mu.Lock()
	clients := w.clients
	w.clients = make(map[int64]ChainClient)
	w.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
