package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredictor/internal/calculator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, calculator.DefaultParams(), cfg.Indicators.Params())
	assert.Equal(t, 30.0, cfg.Indicators.RSIOversold)
	assert.Equal(t, 70.0, cfg.Indicators.RSIOverbought)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 730, cfg.DataSource.HistoryDays)
	assert.Equal(t, "data/signal_state.json", cfg.State.File)
	assert.Equal(t, ProfileYahoo, cfg.DataSource.ProfileSource)
	assert.NotEmpty(t, cfg.Watchlist)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
watchlist: [AAPL, MSFT]
data_source:
  history_days: 365
indicators:
  sma_windows: [10, 30]
  rsi_period: 10
  macd: {fast: 8, slow: 21, signal: 5}
  target_threshold: 0.01
cache:
  ttl: 30m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	p := cfg.Indicators.Params()
	assert.Equal(t, []int{10, 30}, p.SMAWindows)
	assert.Equal(t, 10, p.RSIPeriod)
	assert.Equal(t, 8, p.MACDFast)
	assert.Equal(t, 21, p.MACDSlow)
	assert.Equal(t, 5, p.MACDSignal)
	assert.Equal(t, 0.01, p.TargetThreshold)
	assert.Equal(t, 20, p.VolatilityWindow)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watchlist)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitZeroKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
indicators:
  target_threshold: 0
  rsi_oversold: 0
  macd: {fast: 5}
`))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Indicators.Params().TargetThreshold)
	assert.Equal(t, 0.0, cfg.Indicators.Thresholds().Oversold)
	assert.Equal(t, 70.0, cfg.Indicators.RSIOverbought)
	assert.Equal(t, MACD{Fast: 5, Slow: 26, Signal: 9}, cfg.Indicators.MACD)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitZeroWindowRejected(t *testing.T) {
	cfg, err := Load(writeConfig(t, "indicators:\n  rsi_period: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Indicators.RSIPeriod)
	assert.Error(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WATCHLIST", " tsla, nvda ,")
	t.Setenv("HISTORY_DAYS", "1095")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STATE_FILE", "/tmp/signals.json")
	t.Setenv("PROFILE_SOURCE", "NONE")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/signals.json", cfg.State.File)
	assert.Equal(t, ProfileNone, cfg.DataSource.ProfileSource)
	assert.Equal(t, []string{"TSLA", "NVDA"}, cfg.Watchlist)
	assert.Equal(t, 1095, cfg.DataSource.HistoryDays)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "watchlist: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"macd fast above slow", func(c *Config) { c.Indicators.MACD.Fast = 30 }},
		{"negative sma window", func(c *Config) { c.Indicators.SMAWindows = []int{-1} }},
		{"inverted rsi bands", func(c *Config) { c.Indicators.RSIOversold = 80 }},
		{"too little history", func(c *Config) { c.DataSource.HistoryDays = 10 }},
		{"telegram half configured", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"empty sma windows", func(c *Config) { c.Indicators.SMAWindows = nil }},
		{"unknown profile source", func(c *Config) { c.DataSource.ProfileSource = "bloomberg" }},
		{"empty watchlist", func(c *Config) { c.Watchlist = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
