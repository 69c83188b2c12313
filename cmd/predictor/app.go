package main

import (
	"context"
	"os"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"StockPredictor/internal/collector"
	"StockPredictor/internal/config"
	"StockPredictor/internal/logger"
	"StockPredictor/internal/metrics"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	metrics   *metrics.Metrics
	collector *collector.Collector
	redis     goredis.Cmdable // nil without a reachable Redis
	closers   []func() error
}

func configPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func newApp(ctx context.Context, mock bool) (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}
	a.connectRedis(ctx)
	fetcher := a.newFetcher(mock)
	a.log.Info("data source selected", zap.String("source", fetcher.Name()))
	a.collector = collector.NewCollector(fetcher, cfg.Indicators.Params(), cfg.Indicators.Thresholds(), a.metrics, log)
	a.collector.Profiles = a.newProfileFetcher(mock)
	return a, nil
}

func (a *app) newFetcher(mock bool) collector.Fetcher {
	var fetcher collector.Fetcher
	switch {
	case mock:
		fetcher = &collector.MockFetcher{Price: 100}
	case a.cfg.DataSource.BaseURL != "":
		fetcher = collector.NewRESTFetcher(a.cfg.DataSource.BaseURL, a.cfg.DataSource.APIKey, a.cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(a.cfg.Proxy)
	}
	if a.redis == nil {
		return fetcher
	}
	return collector.NewCachedFetcher(fetcher, a.redis, a.cfg.Cache.TTL, a.metrics, a.log)
}

// newProfileFetcher returns nil when company profiles are disabled.
func (a *app) newProfileFetcher(mock bool) collector.ProfileFetcher {
	var pf collector.ProfileFetcher
	switch {
	case a.cfg.DataSource.ProfileSource == config.ProfileNone:
		return nil
	case mock:
		pf = &collector.MockProfileFetcher{}
	default:
		pf = collector.NewYahooProfileFetcher(a.cfg.Proxy)
	}
	if a.redis == nil {
		return pf
	}
	return collector.NewCachedProfileFetcher(pf, a.redis, a.cfg.Cache.TTL, a.metrics, a.log)
}

func (a *app) connectRedis(ctx context.Context) {
	c := a.cfg.Cache
	if c.RedisAddr == "" {
		return
	}
	client, err := collector.NewRedisClient(ctx, collector.CacheConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TTL:      c.TTL,
	})
	if err != nil {
		a.log.Warn("redis unavailable, cache disabled", zap.String("addr", c.RedisAddr), zap.Error(err))
		return
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
