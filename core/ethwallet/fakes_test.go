package ethwallet

import (
	"bytes"
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/evmbridge/sdk-go/core/bridge"
)

// fakeChain answers the calls the wallet makes. Anything else panics through
// the nil embedded interface.
type fakeChain struct {
	ChainClient

	chainID     int64
	balance     *big.Int
	gas         uint64
	estimateErr error
	sendErr     error
	readyAfter  int
	head        uint64
	callFunc    func(msg ethereum.CallMsg) ([]byte, error)

	mu           sync.Mutex
	sent         []*gethtypes.Transaction
	receiptCalls int
	closed       atomic.Bool
}

var _ ChainClient = (*fakeChain)(nil)

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(f.chainID), nil
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callFunc == nil {
		return nil, errors.New("no contract")
	}
	return f.callFunc(msg)
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.gas, f.estimateErr
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *gethtypes.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeChain) lookup(hash common.Hash) *gethtypes.Transaction {
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			return tx
		}
	}
	return nil
}

func (f *fakeChain) TransactionByHash(_ context.Context, hash common.Hash) (*gethtypes.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx := f.lookup(hash); tx != nil {
		return tx, false, nil
	}
	return nil, false, ethereum.NotFound
}

// TransactionReceipt reports NotFound until it has been asked readyAfter times.
func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptCalls++
	if f.lookup(hash) == nil || f.receiptCalls <= f.readyAfter {
		return nil, ethereum.NotFound
	}
	return &gethtypes.Receipt{
		Status:      gethtypes.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: big.NewInt(10),
		GasUsed:     21000,
	}, nil
}

func (f *fakeChain) Close() {
	f.closed.Store(true)
}

func (f *fakeChain) sentTxs() []*gethtypes.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gethtypes.Transaction(nil), f.sent...)
}

// fakeDialer hands out one fakeChain per URL.
type fakeDialer struct {
	mu     sync.Mutex
	chains map[string]*fakeChain
	dials  map[string]int
}

func newFakeDialer(chains map[string]*fakeChain) *fakeDialer {
	return &fakeDialer{chains: chains, dials: map[string]int{}}
}

func (d *fakeDialer) dial(_ context.Context, url string) (ChainClient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chains[url]
	if !ok {
		return nil, errors.Errorf("no route to %s", url)
	}
	d.dials[url]++
	return c, nil
}

func (d *fakeDialer) count(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[url]
}

// selectorIs reports whether calldata targets method of the given ABI method id.
func selectorIs(data, id []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], id)
}

// revertError mimics a node error carrying revert data.
type revertError struct {
	data string
}

func (e *revertError) Error() string  { return "execution reverted" }
func (e *revertError) ErrorCode() int { return 3 }
func (e *revertError) ErrorData() any { return e.data }

func testChains() []bridge.Chain {
	mainnet, _ := bridge.LookupChain(1)
	polygon, _ := bridge.LookupChain(137)
	return []bridge.Chain{mainnet, polygon}
}
