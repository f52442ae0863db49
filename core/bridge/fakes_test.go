package bridge

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/atomic"
)

type fakeConnector struct{}

func (fakeConnector) ID() string   { return "injected" }
func (fakeConnector) Name() string { return "Injected" }

// fakeLibrary counts wallet client constructions.
type fakeLibrary struct {
	wallet  *fakeWallet
	created atomic.Int64
	lastCfg WalletConfig
	err     error
}

func (l *fakeLibrary) CreateConfig(_ context.Context, cfg WalletConfig) (Wallet, error) {
	l.created.Inc()
	if l.err != nil {
		return nil, l.err
	}
	l.lastCfg = cfg
	return l.wallet, nil
}

type fakeWallet struct {
	mu sync.Mutex

	account Account
	modal   ModalConfig

	// restored is the session Reconnect brings back, if any.
	restored *Account
	modalErr error

	balanceFunc func(ctx context.Context, req BalanceRequest) (*TokenBalance, error)
	prepareFunc func(ctx context.Context, req TransactionRequest) (*TransactionRequest, error)
	sendFunc    func(ctx context.Context, req TransactionRequest) (common.Hash, error)
	waitFunc    func(ctx context.Context, req ReceiptRequest) (*Receipt, error)
	signFunc    func(ctx context.Context, req SignRequest) (string, error)
	readFunc    func(ctx context.Context, call ContractCall) ([]any, error)
	switchFunc  func(ctx context.Context, chainID int64) error

	accountWatchers []func(current, previous Account)
	chainWatchers   []func(current, previous int64)
	unwatched       atomic.Int64
	disconnected    atomic.Bool
	prepared        []TransactionRequest
	sent            []TransactionRequest
}

var _ Wallet = (*fakeWallet)(nil)

func (w *fakeWallet) Reconnect(context.Context) error {
	w.mu.Lock()
	if w.restored == nil {
		w.mu.Unlock()
		return nil
	}
	prev := w.account
	w.account = *w.restored
	cur := w.account
	watchers := append([]func(current, previous Account){}, w.accountWatchers...)
	w.mu.Unlock()

	for _, fn := range watchers {
		fn(cur, prev)
	}
	return nil
}

func (w *fakeWallet) CreateModal(_ context.Context, cfg ModalConfig) error {
	w.modal = cfg
	return w.modalErr
}

func (w *fakeWallet) Disconnect(context.Context) error {
	w.disconnected.Store(true)
	return nil
}

func (w *fakeWallet) Account(context.Context) (Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.account, nil
}

func (w *fakeWallet) setAccount(a Account) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.account = a
}

func (w *fakeWallet) Balance(ctx context.Context, req BalanceRequest) (*TokenBalance, error) {
	return w.balanceFunc(ctx, req)
}

func (w *fakeWallet) PrepareTransactionRequest(ctx context.Context, req TransactionRequest) (*TransactionRequest, error) {
	w.mu.Lock()
	w.prepared = append(w.prepared, req)
	w.mu.Unlock()
	if w.prepareFunc != nil {
		return w.prepareFunc(ctx, req)
	}
	req.Gas = 21000
	return &req, nil
}

func (w *fakeWallet) SendTransaction(ctx context.Context, req TransactionRequest) (common.Hash, error) {
	w.mu.Lock()
	w.sent = append(w.sent, req)
	w.mu.Unlock()
	return w.sendFunc(ctx, req)
}

func (w *fakeWallet) WaitForTransactionReceipt(ctx context.Context, req ReceiptRequest) (*Receipt, error) {
	return w.waitFunc(ctx, req)
}

func (w *fakeWallet) SignMessage(ctx context.Context, req SignRequest) (string, error) {
	return w.signFunc(ctx, req)
}

func (w *fakeWallet) ReadContract(ctx context.Context, call ContractCall) ([]any, error) {
	return w.readFunc(ctx, call)
}

func (w *fakeWallet) WatchAccount(onChange func(current, previous Account)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accountWatchers = append(w.accountWatchers, onChange)
	return func() { w.unwatched.Inc() }
}

func (w *fakeWallet) WatchChainID(onChange func(current, previous int64)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainWatchers = append(w.chainWatchers, onChange)
	return func() { w.unwatched.Inc() }
}

func (w *fakeWallet) SwitchChain(ctx context.Context, chainID int64) error {
	if w.switchFunc != nil {
		return w.switchFunc(ctx, chainID)
	}
	return nil
}

type callbackCall struct {
	method string
	args   []json.RawMessage
}

// recordingTarget collects bridge callbacks on a channel.
type recordingTarget struct {
	calls chan callbackCall
}

func newRecordingTarget() *recordingTarget {
	return &recordingTarget{calls: make(chan callbackCall, 16)}
}

func (r *recordingTarget) InvokeMethod(_ context.Context, method string, args ...json.RawMessage) error {
	r.calls <- callbackCall{method: method, args: args}
	return nil
}

type fakeLogReader struct {
	filterFunc func(ctx context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error)
}

func (r *fakeLogReader) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error) {
	return r.filterFunc(ctx, q)
}

type fakePublicClients struct {
	reader *fakeLogReader
	chain  Chain
	rpcURL string
}

func (f *fakePublicClients) LogReader(_ context.Context, chain Chain, rpcURL string) (LogReader, error) {
	f.chain = chain
	f.rpcURL = rpcURL
	return f.reader, nil
}

var (
	testAccountAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testContract    = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testStake       = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	testTxHash      = common.HexToHash("0x01")
)

func int64Ptr(i int64) *int64 { return &i }

func connectedAccount(chainID int64) Account {
	addr := testAccountAddr
	return Account{
		Address:     &addr,
		Addresses:   []common.Address{addr},
		ChainID:     int64Ptr(chainID),
		Connector:   fakeConnector{},
		IsConnected: true,
		Status:      "connected",
	}
}

func transferLog(from, to common.Address, tokenID int64) gethtypes.Log {
	return gethtypes.Log{
		Address: testContract,
		Topics: []common.Hash{
			transferTopic(),
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
			common.BigToHash(big.NewInt(tokenID)),
		},
	}
}
