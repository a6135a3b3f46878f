package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/metrics"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	facetCacheKey       = "storefront:search:facets:v1"
	defaultFacetTTL     = time.Minute
	facetCacheRedisWait = 250 * time.Millisecond
)

// TieredFacetCache keeps the facet set in process memory and, when a redis
// client is configured, in redis so every API instance shares it.
type TieredFacetCache struct {
	local *lru.LRU[string, *transport.FacetsResponse]
	redis *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// NewFacetCache creates the cache. rdb may be nil to run with the local tier only.
func NewFacetCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *TieredFacetCache {
	if ttl <= 0 {
		ttl = defaultFacetTTL
	}
	return &TieredFacetCache{
		local: lru.NewLRU[string, *transport.FacetsResponse](1, nil, ttl),
		redis: rdb,
		ttl:   ttl,
		log:   log,
	}
}

func (c *TieredFacetCache) Get(ctx context.Context) (*transport.FacetsResponse, bool) {
	if facets, ok := c.local.Get(facetCacheKey); ok {
		metrics.FacetCacheTotal.WithLabelValues("local", "hit").Inc()
		return facets, true
	}
	metrics.FacetCacheTotal.WithLabelValues("local", "miss").Inc()

	if c.redis == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, facetCacheRedisWait)
	defer cancel()

	raw, err := c.redis.Get(ctx, facetCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("facet cache read failed", err)
		}
		metrics.FacetCacheTotal.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}

	var facets transport.FacetsResponse
	if err := json.Unmarshal(raw, &facets); err != nil {
		c.warn("facet cache entry undecodable", err)
		metrics.FacetCacheTotal.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}

	metrics.FacetCacheTotal.WithLabelValues("redis", "hit").Inc()
	c.local.Add(facetCacheKey, &facets)
	return &facets, true
}

func (c *TieredFacetCache) Set(ctx context.Context, facets *transport.FacetsResponse) {
	c.local.Add(facetCacheKey, facets)
	if c.redis == nil {
		return
	}

	raw, err := json.Marshal(facets)
	if err != nil {
		c.warn("facet cache encode failed", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, facetCacheRedisWait)
	defer cancel()
	if err := c.redis.Set(ctx, facetCacheKey, raw, c.ttl).Err(); err != nil {
		c.warn("facet cache write failed", err)
	}
}

func (c *TieredFacetCache) Invalidate(ctx context.Context) {
	c.local.Purge()
	if c.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, facetCacheRedisWait)
	defer cancel()
	if err := c.redis.Del(ctx, facetCacheKey).Err(); err != nil {
		c.warn("facet cache invalidation failed", err)
	}
}

func (c *TieredFacetCache) warn(msg string, err error) {
	if c.log != nil {
		c.log.Warn(msg, "error", err)
	}
}

var _ FacetCache = (*TieredFacetCache)(nil)
