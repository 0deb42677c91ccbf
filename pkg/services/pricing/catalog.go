package pricing

import (
	"context"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Lookup outcomes reported to the Observer.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeFallback = "fallback"
)

// Observer is notified of every price resolution.
type Observer interface {
	ObservePriceLookup(outcome string)
}

type Option func(*Catalog)

func WithObserver(o Observer) Option {
	return func(c *Catalog) {
		c.observer = o
	}
}

// Catalog resolves prices for resource descriptors. Lookups go through the
// cache first; concurrent misses for the same key share one source call.
type Catalog struct {
	source   cost.PriceSource
	cache    *Cache
	group    singleflight.Group
	observer Observer
}

// NewCatalog creates a catalog over source. A nil cache gets a fresh one.
func NewCatalog(source cost.PriceSource, cache *Cache, opts ...Option) *Catalog {
	if cache == nil {
		cache = NewCache()
	}
	c := &Catalog{source: source, cache: cache}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) Cache() *Cache {
	return c.cache
}

// PriceFor returns the hourly price of r (per-request price for functions).
// It never fails: source failures resolve to fallback, or to the kind default
// when fallback is nil. Only source prices are cached; the fallback is
// applied per call, so callers with different fallbacks never see each
// other's.
func (c *Catalog) PriceFor(ctx context.Context, r domain.ResourceDescriptor, fallback *decimal.Decimal) decimal.Decimal {
	switch r.Kind {
	case domain.KindContainerService, domain.KindPlatformService:
		// Composite prices depend on per-service attributes, not on a
		// catalog entry.
		price := DefaultPrice(r)
		if price.IsZero() && fallback != nil {
			return *fallback
		}
		return price
	}

	key := r.CacheKey()
	if price, ok := c.cache.Get(key); ok {
		c.observe(OutcomeHit)
		return price
	}
	if c.cache.Missing(key) {
		return c.fallback(ctx, r, fallback, nil)
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		if price, ok := c.cache.Get(key); ok {
			return cost.Found(price), nil
		}
		res := c.lookup(ctx, r)
		if res.OK() {
			c.cache.Set(key, res.Price)
			c.observe(OutcomeMiss)
		} else {
			c.cache.SetMissing(key)
		}
		return res, nil
	})

	res := v.(cost.LookupResult)
	if res.OK() {
		return res.Price
	}
	return c.fallback(ctx, r, fallback, res.Failure)
}

func (c *Catalog) lookup(ctx context.Context, r domain.ResourceDescriptor) cost.LookupResult {
	if c.source == nil {
		return cost.NotFound("no pricing source configured")
	}
	return c.source.Lookup(ctx, r)
}

// fallback resolves a price the source could not give. failure is nil when
// the miss was already known.
func (c *Catalog) fallback(
	ctx context.Context,
	r domain.ResourceDescriptor,
	fallback *decimal.Decimal,
	failure *cost.LookupFailure,
) decimal.Decimal {
	price := DefaultPrice(r)
	if fallback != nil {
		price = *fallback
	}
	c.observe(OutcomeFallback)

	if failure != nil {
		zerolog.Ctx(ctx).Warn().
			Err(failure).
			Str("resource", r.String()).
			Str("price", price.String()).
			Msg("price lookup failed, using fallback")
	}
	return price
}

func (c *Catalog) observe(outcome string) {
	if c.observer != nil {
		c.observer.ObservePriceLookup(outcome)
	}
}
