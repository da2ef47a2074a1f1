package orders

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/polyclob/internal/cache"
	"github.com/alejandrodnm/polyclob/internal/domain"
)

// MarketConfigFetcher is the part of the exchange API the cache needs.
type MarketConfigFetcher interface {
	FetchMarketConfig(ctx context.Context, tokenID string) (domain.MarketConfig, error)
}

// MarketConfigCache is a read-through cache of per-token tick and min size.
// Entries live for the lifetime of the cache. Two concurrent misses on the same
// token may both hit the exchange; the last write wins.
type MarketConfigCache struct {
	fetcher MarketConfigFetcher
	entries *cache.TTL[string, domain.MarketConfig]
}

// NewMarketConfigCache creates an empty cache backed by fetcher.
func NewMarketConfigCache(fetcher MarketConfigFetcher) *MarketConfigCache {
	return &MarketConfigCache{
		fetcher: fetcher,
		entries: cache.New[string, domain.MarketConfig](0),
	}
}

// Get returns the cached config, fetching it on a miss. A failed fetch is not
// an error: the default config is cached and returned.
func (c *MarketConfigCache) Get(ctx context.Context, tokenID string) domain.MarketConfig {
	if cfg, ok := c.entries.Get(tokenID); ok {
		return cfg
	}

	cfg, err := c.fetcher.FetchMarketConfig(ctx, tokenID)
	if err != nil {
		slog.Warn("market config fetch failed, using defaults",
			"token", tokenID,
			"err", err,
			"tick_size", domain.DefaultMarketConfig.TickSize,
			"min_size", domain.DefaultMarketConfig.MinSize,
		)
		cfg = domain.DefaultMarketConfig
	}
	if cfg.TickSize <= 0 {
		cfg.TickSize = domain.DefaultMarketConfig.TickSize
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = domain.DefaultMarketConfig.MinSize
	}

	c.entries.Set(tokenID, cfg)
	return cfg
}

// Put seeds the cache, e.g. from a market listing that already carries the config.
func (c *MarketConfigCache) Put(tokenID string, cfg domain.MarketConfig) {
	c.entries.Set(tokenID, cfg)
}
