package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"StockPredictor/internal/metrics"
	"StockPredictor/internal/model"
)

// CacheConfig configures the Redis bar cache.
type CacheConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration
}

// CachedFetcher wraps a Fetcher with a time-bounded Redis cache of raw bars.
// Cache failures fall through to the wrapped fetcher.
type CachedFetcher struct {
	next    Fetcher
	client  goredis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewRedisClient creates a Redis client and pings the server.
func NewRedisClient(ctx context.Context, cfg CacheConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewCachedFetcher wraps next with a cache backed by client.
func NewCachedFetcher(next Fetcher, client goredis.Cmdable, ttl time.Duration, m *metrics.Metrics, log *zap.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:    next,
		client:  client,
		ttl:     ttl,
		metrics: m,
		log:     log.With(zap.String("component", "bar_cache")),
	}
}

func (c *CachedFetcher) Name() string { return c.next.Name() + "+redis" }

func (c *CachedFetcher) key(symbol string, days int) string {
	return fmt.Sprintf("bars:%s:%s:%d", c.next.Name(), strings.ToUpper(symbol), days)
}

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	key := c.key(symbol, days)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var bars []model.OHLCV
		if err := json.Unmarshal(data, &bars); err == nil {
			c.metrics.CacheHit()
			return bars, nil
		}
		c.log.Warn("discarding corrupt cache entry", zap.String("key", key))
	} else if !errors.Is(err, goredis.Nil) {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.CacheMiss()

	bars, err := c.next.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(bars); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return bars, nil
}
