package ethwallet

import (
	"context"
	"crypto/ecdsa"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/logging"
)

const (
	defaultPollInterval   = 3 * time.Second
	defaultReceiptTimeout = 3 * time.Minute
)

// Library creates wallets that sign with a single local key.
type Library struct {
	key            *ecdsa.PrivateKey
	dial           Dialer
	logger         *zap.Logger
	pollInterval   time.Duration
	receiptTimeout time.Duration
}

var _ bridge.Library = (*Library)(nil)

type Option func(*Library)

func NewLibrary(key *ecdsa.PrivateKey, opts ...Option) *Library {
	l := &Library{
		key:            key,
		dial:           DialRPC,
		logger:         logging.Logger,
		pollInterval:   defaultPollInterval,
		receiptTimeout: defaultReceiptTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("ethwallet")
	return l
}

// NewLibraryFromHex parses a hex private key, with or without 0x.
func NewLibraryFromHex(hexKey string, opts ...Option) (*Library, error) {
	if len(hexKey) > 1 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	return NewLibrary(key, opts...), nil
}

func WithDialer(dial Dialer) Option {
	return func(l *Library) {
		l.dial = dial
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithReceiptPolling sets how often receipts are polled and how long a wait
// lasts before it fails with a timeout.
func WithReceiptPolling(interval, timeout time.Duration) Option {
	return func(l *Library) {
		if interval > 0 {
			l.pollInterval = interval
		}
		if timeout > 0 {
			l.receiptTimeout = timeout
		}
	}
}

// CreateConfig returns a disconnected wallet over cfg's chains. Reconnect
// connects the local key on the first chain.
func (l *Library) CreateConfig(_ context.Context, cfg bridge.WalletConfig) (bridge.Wallet, error) {
	if l.key == nil {
		return nil, errors.New("private key is required")
	}
	if len(cfg.Chains) == 0 {
		return nil, errors.New("at least one chain is required")
	}

	w := &Wallet{
		lib:     l,
		address: crypto.PubkeyToAddress(l.key.PublicKey),
		chains:  make(map[int64]bridge.Chain, len(cfg.Chains)),
		rpcURLs: make(map[int64]string, len(cfg.Chains)),
		clients: make(map[int64]ChainClient),
		logger:  l.logger.With(zap.String("project", cfg.ProjectID)),
		account: bridge.Account{IsDisconnected: true, Status: "disconnected"},
	}
	for _, c := range cfg.Chains {
		w.chains[c.ID] = c
		url := c.RPCURL
		if override, ok := cfg.RPCOverrides[c.ID]; ok && override != "" {
			url = override
		}
		w.rpcURLs[c.ID] = url
	}
	w.defaultChain = cfg.Chains[0].ID
	w.chainID = w.defaultChain
	return w, nil
}
