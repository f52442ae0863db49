package ethwallet

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/logging"
)

// PublicClients pools read-only RPC clients by URL. Idle clients expire after
// the TTL and are closed on eviction.
type PublicClients struct {
	dial   Dialer
	logger *zap.Logger

	mu    sync.Mutex
	cache *cache.Cache
}

var _ bridge.PublicClientFactory = (*PublicClients)(nil)

func NewPublicClients(ttl time.Duration, dial Dialer, logger *zap.Logger) *PublicClients {
	if dial == nil {
		dial = DialRPC
	}
	if logger == nil {
		logger = logging.Logger
	}
	p := &PublicClients{
		dial:   dial,
		logger: logger.Named("public-clients"),
		cache:  cache.New(ttl, ttl),
	}
	p.cache.OnEvicted(func(url string, v interface{}) {
		if c, ok := v.(ChainClient); ok {
			p.logger.Debug("closing idle client", zap.String("rpc", url))
			c.Close()
		}
	})
	return p
}

// LogReader returns the pooled client for rpcURL, dialing it on first use.
// Each use extends its lifetime.
func (p *PublicClients) LogReader(ctx context.Context, chain bridge.Chain, rpcURL string) (bridge.LogReader, error) {
	if rpcURL == "" {
		rpcURL = chain.RPCURL
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if x, found := p.cache.Get(rpcURL); found {
		if c, ok := x.(ChainClient); ok {
			p.cache.SetDefault(rpcURL, c)
			return c, nil
		}
	}
	// expired entries still sitting in the cache must be closed before they are replaced
	p.cache.DeleteExpired()

	c, err := p.dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(rpcURL, c)
	p.logger.Debug("dialed public client", zap.String("rpc", rpcURL), zap.Int64("chainId", chain.ID))
	return c, nil
}

// Len reports how many clients are pooled.
func (p *PublicClients) Len() int {
	return p.cache.ItemCount()
}

// Close closes every pooled client.
func (p *PublicClients) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.DeleteExpired()
	for url := range p.cache.Items() {
		p.cache.Delete(url)
	}
}
