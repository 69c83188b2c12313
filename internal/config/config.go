package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockPredictor/internal/calculator"
	"StockPredictor/internal/strategy"
)

// Company profile sources.
const (
	ProfileYahoo = "yahoo"
	ProfileNone  = "none"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		HistoryDays int    `yaml:"history_days"`

		// ProfileSource is ProfileYahoo or ProfileNone.
		ProfileSource string `yaml:"profile_source"`
	} `yaml:"data_source"`
	Watchlist  []string   `yaml:"watchlist"`
	Indicators Indicators `yaml:"indicators"`
	Schedule   struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	State struct {
		File string `yaml:"file"`
	} `yaml:"state"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Indicators configures the indicator pipeline and the signal classifier.
type Indicators struct {
	SMAWindows       []int   `yaml:"sma_windows"`
	VolatilityWindow int     `yaml:"volatility_window"`
	RSIPeriod        int     `yaml:"rsi_period"`
	MACD             MACD    `yaml:"macd"`
	TargetThreshold  float64 `yaml:"target_threshold"`
	RSIOversold      float64 `yaml:"rsi_oversold"`
	RSIOverbought    float64 `yaml:"rsi_overbought"`
}

// MACD holds the fast/slow/signal spans.
type MACD struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

// DefaultIndicators returns the pipeline and classifier defaults.
func DefaultIndicators() Indicators {
	p := calculator.DefaultParams()
	th := strategy.DefaultThresholds()
	return Indicators{
		SMAWindows:       p.SMAWindows,
		VolatilityWindow: p.VolatilityWindow,
		RSIPeriod:        p.RSIPeriod,
		MACD:             MACD{Fast: p.MACDFast, Slow: p.MACDSlow, Signal: p.MACDSignal},
		TargetThreshold:  p.TargetThreshold,
		RSIOversold:      th.Oversold,
		RSIOverbought:    th.Overbought,
	}
}

// Params converts the indicator section to pipeline parameters.
func (i Indicators) Params() calculator.Params {
	windows := make([]int, len(i.SMAWindows))
	copy(windows, i.SMAWindows)
	return calculator.Params{
		SMAWindows:       windows,
		VolatilityWindow: i.VolatilityWindow,
		RSIPeriod:        i.RSIPeriod,
		MACDFast:         i.MACD.Fast,
		MACDSlow:         i.MACD.Slow,
		MACDSignal:       i.MACD.Signal,
		TargetThreshold:  i.TargetThreshold,
	}
}

// Thresholds returns the classifier RSI bands.
func (i Indicators) Thresholds() strategy.Thresholds {
	return strategy.Thresholds{Oversold: i.RSIOversold, Overbought: i.RSIOverbought}
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// Indicator fields are seeded with their defaults before decoding so an
// explicit zero in the file is kept as configured.
func Load(path string) (*Config, error) {
	cfg := &Config{Indicators: DefaultIndicators()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is fine; values already in the environment win.
	_ = godotenv.Load()

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BARS_API_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BARS_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("PROFILE_SOURCE"); v != "" {
		cfg.DataSource.ProfileSource = strings.ToLower(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist = splitSymbols(v)
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.State.File = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HISTORY_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.HistoryDays = days
		}
	}
}

func applyDefaults(cfg *Config) {
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = []string{"GOOGL"}
	}
	if cfg.DataSource.ProfileSource == "" {
		cfg.DataSource.ProfileSource = ProfileYahoo
	}
	if cfg.DataSource.HistoryDays == 0 {
		cfg.DataSource.HistoryDays = 730
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 22 * * 1-5"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_predictor.db"
	}
	if cfg.State.File == "" {
		cfg.State.File = "data/signal_state.json"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if err := c.Indicators.Params().Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if c.Indicators.MACD.Fast >= c.Indicators.MACD.Slow {
		return errors.New("indicators.macd.fast must be less than indicators.macd.slow")
	}
	if c.Indicators.TargetThreshold < 0 {
		return errors.New("indicators.target_threshold must not be negative")
	}
	if c.Indicators.RSIOversold >= c.Indicators.RSIOverbought {
		return errors.New("indicators.rsi_oversold must be below indicators.rsi_overbought")
	}
	if len(c.Indicators.SMAWindows) == 0 {
		return errors.New("indicators.sma_windows must not be empty")
	}
	if len(c.Watchlist) == 0 {
		return errors.New("watchlist must not be empty")
	}
	if c.DataSource.HistoryDays < c.Indicators.Params().MinHistory() {
		return fmt.Errorf("data_source.history_days must be at least %d", c.Indicators.Params().MinHistory())
	}
	if p := c.DataSource.ProfileSource; p != ProfileYahoo && p != ProfileNone {
		return fmt.Errorf("data_source.profile_source must be %q or %q, got %q", ProfileYahoo, ProfileNone, p)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
