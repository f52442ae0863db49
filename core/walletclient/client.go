// Package walletclient is the host-side proxy of the wallet bridge. It loads
// the bridge module, configures it before first use, decodes its JSON results
// and re-raises its callbacks as local events.
package walletclient

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/evmbridge/sdk-go/core/boundary"
	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/logging"
	"github.com/evmbridge/sdk-go/core/types"
)

var ErrClosed = errors.New("wallet client closed")

type Client struct {
	options    types.ConnectionOptions
	runtime    Runtime
	modulePath string
	logger     *zap.Logger

	loadMu sync.Mutex
	module ModuleRef
	ref    *boundary.ObjectRef

	configure  singleflight.Group
	configured atomic.Bool
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error

	accountChanged       *eventStream[types.AccountChangedEvent]
	chainIDChanged       *eventStream[types.ChainIDChangedEvent]
	transactionConfirmed *eventStream[types.TransactionConfirmedEvent]
}

var (
	_ types.WalletClient      = (*Client)(nil)
	_ boundary.CallbackTarget = (*Client)(nil)
)

type Option func(*Client)

// NewClient validates options and returns a Client. Nothing is loaded or
// configured until the first call.
func NewClient(runtime Runtime, options types.ConnectionOptions, opts ...Option) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("runtime is required")
	}
	if err := options.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	c := &Client{
		options:              options,
		runtime:              runtime,
		modulePath:           bridge.ModulePath,
		logger:               logging.Logger,
		accountChanged:       newEventStream[types.AccountChangedEvent](),
		chainIDChanged:       newEventStream[types.ChainIDChangedEvent](),
		transactionConfirmed: newEventStream[types.TransactionConfirmedEvent](),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("walletclient")
	c.ref = boundary.NewObjectRef(c)
	return c, nil
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithModulePath overrides the path the bridge module is imported from.
func WithModulePath(path string) Option {
	return func(c *Client) {
		c.modulePath = path
	}
}

func (c *Client) loadModule(ctx context.Context) (ModuleRef, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if c.closed.Load() {
		return nil, errors.WithStack(ErrClosed)
	}
	if c.module != nil {
		return c.module, nil
	}

	module, err := c.runtime.Import(ctx, c.modulePath)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", c.modulePath)
	}
	c.module = module
	return module, nil
}

// Configure hands the connection options to the bridge. Concurrent first
// calls share one bridge call; once it succeeds later calls return at once.
// The shared call is not cancelled with any one caller's ctx; a caller whose
// ctx ends stops waiting and gets ctx's error.
func (c *Client) Configure(ctx context.Context) error {
	if c.closed.Load() {
		return errors.WithStack(ErrClosed)
	}
	if c.configured.Load() {
		return nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.configure.DoChan("configure", func() (any, error) {
		if c.configured.Load() {
			return nil, nil
		}
		module, err := c.loadModule(shared)
		if err != nil {
			return nil, err
		}
		options, err := json.Marshal(c.options)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := module.InvokeVoid(shared, bridge.MethodConfigure, string(options), c.ref); err != nil {
			return nil, errors.Wrap(err, "configure bridge")
		}
		c.configured.Store(true)
		c.logger.Debug("bridge configured")
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// ready configures on first use and returns the module.
func (c *Client) ready(ctx context.Context) (ModuleRef, error) {
	if err := c.Configure(ctx); err != nil {
		return nil, err
	}
	return c.loadModule(ctx)
}

func (c *Client) invoke(ctx context.Context, method string, args ...any) (*string, error) {
	module, err := c.ready(ctx)
	if err != nil {
		return nil, err
	}
	res, err := module.Invoke(ctx, method, args...)
	if err != nil {
		return nil, errors.Wrap(err, method)
	}
	return res, nil
}

func (c *Client) invokeVoid(ctx context.Context, method string, args ...any) error {
	module, err := c.ready(ctx)
	if err != nil {
		return err
	}
	return errors.Wrap(module.InvokeVoid(ctx, method, args...), method)
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.invokeVoid(ctx, bridge.MethodDisconnectWallet)
}

func (c *Client) SwitchChainID(ctx context.Context, chainID int64) error {
	return c.invokeVoid(ctx, bridge.MethodSwitchChainID, chainID)
}

func (c *Client) GetAccount(ctx context.Context) (*types.AccountSnapshot, error) {
	raw, err := c.invoke(ctx, bridge.MethodGetWalletAccount)
	if err != nil {
		return nil, err
	}
	return decodeOptional[types.AccountSnapshot](bridge.MethodGetWalletAccount, raw)
}

func (c *Client) GetBalance(ctx context.Context) (*types.Balance, error) {
	raw, err := c.invoke(ctx, bridge.MethodGetWalletMainBalance)
	if err != nil {
		return nil, err
	}
	return decodeBalance(bridge.MethodGetWalletMainBalance, raw)
}

func (c *Client) GetERC20Balance(ctx context.Context, token common.Address) (*types.Balance, error) {
	raw, err := c.invoke(ctx, bridge.MethodGetBalanceOfERC20Token, token.Hex())
	if err != nil {
		return nil, err
	}
	return decodeBalance(bridge.MethodGetBalanceOfERC20Token, raw)
}

func decodeBalance(method string, raw *string) (*types.Balance, error) {
	snap, err := decodeOptional[types.BalanceSnapshot](method, raw)
	if err != nil || snap == nil {
		return nil, err
	}
	return snap.Balance(), nil
}

func (c *Client) GetBalanceOf(ctx context.Context, contract common.Address) (*big.Int, error) {
	raw, err := c.invoke(ctx, bridge.MethodGetBalanceOfERC721Token, contract.Hex())
	if err != nil {
		return nil, err
	}
	return decodeBigInt(bridge.MethodGetBalanceOfERC721Token, raw)
}

func (c *Client) GetTokenOfOwnerByIndex(ctx context.Context, contract common.Address, index *big.Int) (*big.Int, error) {
	raw, err := c.invoke(ctx, bridge.MethodGetTokenOfOwnerByIndex, contract.Hex(), types.NewBigInt(index))
	if err != nil {
		return nil, err
	}
	return decodeBigInt(bridge.MethodGetTokenOfOwnerByIndex, raw)
}

// decodeBigInt decodes a decimal-string integer; null gives zero.
func decodeBigInt(method string, raw *string) (*big.Int, error) {
	v, err := decodeOptional[types.BigInt](method, raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v.Big(), nil
}

func (c *Client) GetOwnerOf(ctx context.Context, contract common.Address, tokenID *big.Int) (string, error) {
	raw, err := c.invoke(ctx, bridge.MethodGetOwnerOf, contract.Hex(), types.NewBigInt(tokenID))
	if err != nil {
		return "", err
	}
	owner, err := decodeOptional[string](bridge.MethodGetOwnerOf, raw)
	if err != nil || owner == nil {
		return "", err
	}
	return *owner, nil
}

func (c *Client) GetStakedTokens(ctx context.Context, contract, stakeContract common.Address) ([]*big.Int, error) {
	raw, err := c.invoke(ctx, bridge.MethodGetStakedTokens, contract.Hex(), stakeContract.Hex())
	if err != nil {
		return nil, err
	}
	ids, err := decodeOptional[[]types.BigInt](bridge.MethodGetStakedTokens, raw)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		return []*big.Int{}, nil
	}
	out := make([]*big.Int, len(*ids))
	for i := range *ids {
		out[i] = (*ids)[i].Big()
	}
	return out, nil
}

// SendTransaction returns the transaction hash as soon as the bridge has
// submitted it. Subscribe with OnTransactionConfirmed to learn the outcome.
func (c *Client) SendTransaction(ctx context.Context, input types.TransactionInput) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", errors.WithStack(err)
	}
	raw, err := c.invoke(ctx, bridge.MethodSendTransaction, string(payload), c.ref)
	if err != nil {
		return "", err
	}
	return decodeStringResult(bridge.MethodSendTransaction, raw)
}

func (c *Client) SignMessage(ctx context.Context, message string) (string, error) {
	raw, err := c.invoke(ctx, bridge.MethodSignMessage, message)
	if err != nil {
		return "", err
	}
	return decodeStringResult(bridge.MethodSignMessage, raw)
}

func (c *Client) OnAccountChanged(handler func(types.AccountChangedEvent)) func() {
	return c.accountChanged.subscribe(handler)
}

func (c *Client) OnChainIDChanged(handler func(types.ChainIDChangedEvent)) func() {
	return c.chainIDChanged.subscribe(handler)
}

func (c *Client) OnTransactionConfirmed(handler func(types.TransactionConfirmedEvent)) func() {
	return c.transactionConfirmed.subscribe(handler)
}

// Close releases the bridge module and the callback reference. It is safe to
// call more than once; only the first call does any work.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.loadMu.Lock()
		c.closed.Store(true)
		module := c.module
		c.module = nil
		c.loadMu.Unlock()

		c.ref.Dispose()
		if module != nil {
			c.closeErr = errors.Wrap(module.Close(), "close bridge module")
		}
		c.accountChanged.clear()
		c.chainIDChanged.clear()
		c.transactionConfirmed.clear()
	})
	return c.closeErr
}

// Shutdown is Close bounded by ctx. Release continues in the background if
// ctx ends first.
func (c *Client) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- c.Close()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}
