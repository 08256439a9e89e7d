package cache

import (
	"fmt"
	"time"

	"cbrates/internal/domain"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
)

// RistrettoRateCache keeps recently read rates in process so interactive
// lookups skip the storage backend. Entries expire on TTL; a published rate
// never changes, so no invalidation path is needed.
type RistrettoRateCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewRateCache(maxItems int64, ttl time.Duration) (*RistrettoRateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate cache failed: %w", err)
	}
	return &RistrettoRateCache{cache: c, ttl: ttl}, nil
}

func (c *RistrettoRateCache) Get(key domain.RateKey) (decimal.Decimal, bool) {
	if v, ok := c.cache.Get(key.String()); ok {
		value, ok := v.(decimal.Decimal)
		return value, ok
	}
	return decimal.Decimal{}, false
}

func (c *RistrettoRateCache) Set(key domain.RateKey, value decimal.Decimal) {
	c.cache.SetWithTTL(key.String(), value, 1, c.ttl)
}

func (c *RistrettoRateCache) Close() { c.cache.Close() }
