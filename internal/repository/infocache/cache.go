// Package infocache is a read-through Redis cache over the product info
// resolver. The resolver itself never caches; this decorator is the
// external caching layer the server binary wires in front of it.
package infocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/domain"
)

const keyPrefix = "marketgate:info_cache:"

// errMiss signals an absent cache entry.
var errMiss = errors.New("infocache: miss")

// Resolver is the inner product info source.
type Resolver interface {
	GetInfo(ctx context.Context, id int64, infoType domain.InfoType) (*domain.ProductInfo, error)
}

// store is the consumer interface over the key-value backend.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedResolver caches product info snapshots with a TTL.
// Absent products are never cached; every miss re-queries the inner
// resolver, so a product published after a failed lookup shows up
// immediately.
type CachedResolver struct {
	inner      Resolver
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator backed by a Redis client.
// cacheTotal is a counter vec with label "result" ("hit"/"miss").
func New(
	inner Resolver,
	client rueidis.Client,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedResolver {
	return newWithStore(inner, &redisStore{client: client}, ttl, cacheTotal, logger)
}

func newWithStore(
	inner Resolver, s store, ttl time.Duration,
	cacheTotal *prometheus.CounterVec, logger *zap.Logger,
) *CachedResolver {
	return &CachedResolver{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// GetInfo returns a cached snapshot or falls back to the inner resolver.
func (c *CachedResolver) GetInfo(
	ctx context.Context, id int64, infoType domain.InfoType,
) (*domain.ProductInfo, error) {
	key := cacheKey(id, infoType)

	if info, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return info, nil
	}
	c.incCache("miss")

	info, err := c.inner.GetInfo(ctx, id, infoType)
	if err != nil {
		return nil, fmt.Errorf("resolve product info: %w", err)
	}
	if info != nil {
		c.putToCache(ctx, key, info)
	}
	return info, nil
}

func (c *CachedResolver) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(id int64, infoType domain.InfoType) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, infoType, id)
}

func (c *CachedResolver) getFromCache(ctx context.Context, key string) (*domain.ProductInfo, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errMiss) {
			c.logger.Warn("Failed to read cached product info", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var info domain.ProductInfo
	if err := json.Unmarshal(data, &info); err != nil {
		c.logger.Warn("Failed to parse cached product info", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &info, true
}

func (c *CachedResolver) putToCache(ctx context.Context, key string, info *domain.ProductInfo) {
	data, err := json.Marshal(info)
	if err != nil {
		c.logger.Warn("Failed to encode product info", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache product info", zap.String("key", key), zap.Error(err))
	}
}

// redisStore implements store via rueidis.
type redisStore struct {
	client rueidis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	data, err := resp.AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, errMiss
		}
		return nil, fmt.Errorf("GET %s: %w", key, err)
	}
	return data, nil
}

func (s *redisStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("SET %s: %w", key, err)
	}
	return nil
}
