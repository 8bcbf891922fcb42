package pricefeeder

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/slab-network/oracled/internal/core/ports"
)

// DefaultCacheTTL is how long a provider reuses a quote before asking
// upstream again.
const DefaultCacheTTL = 10 * time.Second

// ResponseCache is a short-TTL, per-mint cache of provider quotes.
// A hit does not extend the lifetime of the entry.
type ResponseCache struct {
	cache *ttlcache.Cache[string, ports.Quote]
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, ports.Quote](ttl),
			ttlcache.WithDisableTouchOnHit[string, ports.Quote](),
		),
	}
}

// Get returns the cached quote for mint if younger than the TTL.
func (c *ResponseCache) Get(mint string) (ports.Quote, bool) {
	item := c.cache.Get(mint)
	if item == nil {
		return ports.Quote{}, false
	}
	return item.Value(), true
}

func (c *ResponseCache) Set(mint string, quote ports.Quote) {
	c.cache.DeleteExpired()
	c.cache.Set(mint, quote, ttlcache.DefaultTTL)
}
