// Package cache memoises ranked results in Redis. Entries are keyed by index
// generation so a rebuild never serves stale rankings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/resilience"
)

const keyPrefix = "rank:"

// Store is the key-value backend. *pkgredis.Client satisfies it; a missing
// key must be reported with an error for which pkgredis.IsNilError is true.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key identifies one ranking request.
type Key struct {
	Index      string
	Generation time.Time
	Model      string
	Query      string
	Limit      int
}

type Options struct {
	TTL       time.Duration
	OpTimeout time.Duration
	Metrics   *metrics.Metrics
}

type RankCache struct {
	store   Store
	opts    Options
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, opts Options) *RankCache {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 200 * time.Millisecond
	}
	logger := slog.Default().With("component", "rank-cache")
	breaker := resilience.NewCircuitBreaker("rank-cache", resilience.CircuitBreakerConfig{
		OnStateChange: func(_ string, _, to resilience.State) {
			if to == resilience.StateOpen {
				logger.Warn("cache backend failing, serving uncached rankings")
			}
		},
	})
	return &RankCache{
		store:   store,
		opts:    opts,
		breaker: breaker,
		logger:  logger,
	}
}

func (c *RankCache) get(ctx context.Context, key string) ([]ranker.ScoredDoc, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = resilience.Call(ctx, c.opts.OpTimeout, "cache-get", func(ctx context.Context) ([]byte, error) {
			v, err := c.store.Get(ctx, key)
			if pkgredis.IsNilError(err) {
				return nil, nil
			}
			return v, err
		})
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var result []ranker.ScoredDoc
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return result, true
}

func (c *RankCache) set(ctx context.Context, key string, result []ranker.ScoredDoc) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, c.opts.OpTimeout, "cache-set", func(ctx context.Context) error {
			return c.store.Set(ctx, key, data, c.opts.TTL)
		})
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached ranking for k, or runs compute and stores
// its result. Concurrent misses on the same key share one compute call.
// Backend failures count as misses. The boolean reports a cache hit.
func (c *RankCache) GetOrCompute(
	ctx context.Context,
	k Key,
	compute func(ctx context.Context) ([]ranker.ScoredDoc, error),
) ([]ranker.ScoredDoc, bool, error) {
	key := BuildKey(k)
	if result, ok := c.get(ctx, key); ok {
		c.recordHit()
		return result, true, nil
	}
	c.recordMiss()
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ranker.ScoredDoc), false, nil
}

func (c *RankCache) recordHit() {
	c.hits.Add(1)
	if c.opts.Metrics != nil {
		c.opts.Metrics.CacheHitsTotal.Inc()
	}
}

func (c *RankCache) recordMiss() {
	c.misses.Add(1)
	if c.opts.Metrics != nil {
		c.opts.Metrics.CacheMissesTotal.Inc()
	}
}

func (c *RankCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BuildKey hashes the request. Query words are sorted since both built-in
// models ignore word order.
func BuildKey(k Key) string {
	raw := fmt.Sprintf("%s|%d|%s|%s|limit=%d",
		k.Index, k.Generation.UnixNano(), k.Model, normalizeQuery(k.Query), k.Limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func normalizeQuery(query string) string {
	words := strings.Fields(query)
	slices.Sort(words)
	return strings.Join(words, " ")
}
