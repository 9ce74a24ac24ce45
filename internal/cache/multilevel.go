package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Stats() map[string]interface{}
	Health(ctx context.Context) error
	Close() error
}

// MultiLevelCache reads through a process-local L1 to an optional redis L2.
// Calls to L2 go through a circuit breaker; while it is open the cache
// degrades to L1 only and reports misses instead of errors.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
	metrics *CacheMetrics
	logger  *zap.Logger
}

type Option func(*MultiLevelCache)

func WithLogger(l *zap.Logger) Option {
	return func(c *MultiLevelCache) { c.logger = l }
}

func WithBreaker(cb *CircuitBreaker) Option {
	return func(c *MultiLevelCache) { c.breaker = cb }
}

func WithL1(m *MemoryCache) Option {
	return func(c *MultiLevelCache) { c.l1 = m }
}

// NewMultiLevelCache accepts a nil redisCache for memory-only operation.
func NewMultiLevelCache(redisCache *RedisCache, opts ...Option) *MultiLevelCache {
	c := &MultiLevelCache{
		l1:      NewMemoryCache(1024, time.Minute),
		l2:      redisCache,
		metrics: NewCacheMetrics(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = NewCircuitBreaker(nil)
	}
	c.breaker.OnStateChange(func(from, to CircuitBreakerState) {
		c.logger.Warn("cache circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	})
	return c
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.metrics.RecordSet()
	if err := c.l1.Set(key, value); err != nil {
		return err
	}

	if c.l2 == nil {
		return nil
	}
	c.degrade("set", key, c.breaker.Execute(func() error {
		return c.l2.Set(ctx, key, value, ttl)
	}))
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(key, dest); err == nil {
		c.metrics.RecordHit()
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	var data []byte
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.l2.GetBytes(ctx, key)
		if errors.Is(getErr, ErrCacheMiss) {
			return nil
		}
		return getErr
	})
	if err != nil {
		c.metrics.RecordError()
		c.degrade("get", key, err)
		return ErrCacheMiss
	}
	if data == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	c.l1.SetBytes(key, data)
	c.metrics.RecordHit()
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	c.metrics.RecordDelete()
	c.l1.Delete(key)

	if c.l2 == nil {
		return nil
	}
	c.degrade("delete", key, c.breaker.Execute(func() error {
		return c.l2.Delete(ctx, key)
	}))
	return nil
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	m := c.metrics.GetStats()
	stats := map[string]interface{}{
		"l1_entries": c.l1.Len(),
		"hits":       m.Hits,
		"misses":     m.Misses,
		"errors":     m.Errors,
		"hit_rate":   c.metrics.HitRate(),
		"breaker":    c.breaker.GetStats(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 == nil {
		return nil
	}
	if err := c.l2.Health(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	if c.l2 != nil {
		return c.l2.Close()
	}

	return nil
}

// degrade logs real L2 failures; an open breaker is silent.
func (c *MultiLevelCache) degrade(op, key string, err error) {
	if err == nil || errors.Is(err, ErrCircuitBreakerOpen) {
		return
	}
	c.logger.Warn("redis cache operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
}
