package pricing

import (
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// Cache maps descriptor cache keys to the prices the source returned, for
// the lifetime of the process. Keys the source could not price are kept as
// misses so the source is asked once. Entries never expire.
type Cache struct {
	store *gocache.Cache
}

type entry struct {
	price   decimal.Decimal
	missing bool
}

func NewCache() *Cache {
	return &Cache{store: gocache.New(gocache.NoExpiration, 0)}
}

// NewSeededCache returns a cache pre-populated with prices.
func NewSeededCache(prices map[string]decimal.Decimal) *Cache {
	c := NewCache()
	for key, price := range prices {
		c.Set(key, price)
	}
	return c
}

// Get returns the cached source price for key. Misses report false.
func (c *Cache) Get(key string) (decimal.Decimal, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return decimal.Zero, false
	}
	e := v.(entry)
	if e.missing {
		return decimal.Zero, false
	}
	return e.price, true
}

func (c *Cache) Set(key string, price decimal.Decimal) {
	c.store.Set(key, entry{price: price}, gocache.NoExpiration)
}

// Missing reports whether the source already failed to price key.
func (c *Cache) Missing(key string) bool {
	v, ok := c.store.Get(key)
	return ok && v.(entry).missing
}

// SetMissing records that the source has no price for key. An existing
// price is kept.
func (c *Cache) SetMissing(key string) {
	_ = c.store.Add(key, entry{missing: true}, gocache.NoExpiration)
}

// Len counts cached prices and misses.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
