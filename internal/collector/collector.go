package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"StockPredictor/internal/calculator"
	"StockPredictor/internal/metrics"
	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
	"StockPredictor/internal/strategy"
)

var (
	// ErrFetch wraps every failure of the underlying Fetcher.
	ErrFetch               = errors.New("fetch daily bars")
	// ErrInsufficientHistory is returned when fewer bars than Params.MinHistory are available.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrProfileFetch wraps every failure of the ProfileFetcher.
	ErrProfileFetch        = errors.New("fetch company profile")
	// ErrNoProfiles is returned by Profile when no profile source is configured.
	ErrNoProfiles          = errors.New("company profiles not configured")
)

// Result is one analysed series together with its summary.
type Result struct {
	Series   *series.Series
	Analysis *model.Analysis
}

// Collector orchestrates data fetching, indicator computation and classification.
type Collector struct {
	Fetcher    Fetcher
	Profiles   ProfileFetcher // nil leaves Analysis.Profile empty
	Params     calculator.Params
	Thresholds strategy.Thresholds
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, params calculator.Params, th strategy.Thresholds, m *metrics.Metrics, log *zap.Logger) *Collector {
	return &Collector{
		Fetcher:    fetcher,
		Params:     params,
		Thresholds: th,
		Metrics:    m,
		Log:        log.With(zap.String("component", "collector")),
	}
}

// Collect fetches daily bars for symbol and analyses them.
func (c *Collector) Collect(ctx context.Context, symbol string, days int, trigger model.TriggerType) (*Result, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}

	start := time.Now()
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, days)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(start), err)
	if err != nil {
		c.Metrics.ObserveAnalysis("fetch_error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	c.Log.Debug("bars fetched",
		zap.String("symbol", symbol),
		zap.String("source", c.Fetcher.Name()),
		zap.Int("bars", len(bars)))

	computeStart := time.Now()
	res, err := c.Analyze(symbol, bars, trigger)
	c.Metrics.ObserveAnalysis(resultLabel(err), time.Since(computeStart))
	if err != nil {
		return nil, err
	}
	if c.Profiles != nil {
		if p, err := c.Profile(ctx, symbol); err == nil {
			res.Analysis.Profile = p
		} else {
			c.Log.Warn("company profile unavailable", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	sig := res.Analysis.Signal
	c.Metrics.ObserveSignal(symbol, string(sig.Action), sig.RSI, sig.MACD)
	c.Log.Info("analysis complete",
		zap.String("symbol", symbol),
		zap.String("action", string(sig.Action)),
		zap.Float64("rsi", sig.RSI),
		zap.Float64("macd", sig.MACD),
		zap.Int("bars", res.Analysis.Bars))
	return res, nil
}

// Profile fetches the company profile of symbol.
func (c *Collector) Profile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	if c.Profiles == nil {
		return nil, ErrNoProfiles
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	start := time.Now()
	p, err := c.Profiles.FetchProfile(ctx, symbol)
	c.Metrics.ObserveFetch(c.Profiles.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileFetch, err)
	}
	return p, nil
}

// Analyze loads bars into a series, computes every indicator column and
// classifies the latest position. It performs no I/O.
func (c *Collector) Analyze(symbol string, bars []model.OHLCV, trigger model.TriggerType) (*Result, error) {
	s, err := series.Load(bars)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if minBars := c.Params.MinHistory(); s.Len() < minBars {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientHistory, s.Len(), minBars)
	}
	s, err = calculator.Apply(s, c.Params)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	sig, err := strategy.Evaluate(s, c.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	source := "direct"
	if c.Fetcher != nil {
		source = c.Fetcher.Name()
	}
	return &Result{
		Series: s,
		Analysis: &model.Analysis{
			Symbol:      symbol,
			Source:      source,
			Bars:        s.Len(),
			Indicators:  Snapshot(s, c.Params),
			Signal:      *sig,
			TriggerType: trigger,
			GeneratedAt: time.Now().UTC(),
		},
	}, nil
}

// Snapshot reads the latest-position values of a computed series.
func Snapshot(s *series.Series, p calculator.Params) model.MarketIndicators {
	last := s.Len() - 1
	bar := s.LatestBar()
	ind := model.MarketIndicators{
		Date:   bar.Time,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
		SMA:    make(map[int]model.Value, len(p.SMAWindows)),
	}
	if last > 0 {
		prev := s.Bar(last - 1).Close
		ind.PrevClose = model.Some(prev)
		ind.Change = model.Some(bar.Close - prev)
		ind.ChangePct = model.Some((bar.Close - prev) / prev * 100)
	}

	latest := func(name string) model.Value {
		v, _ := s.Latest(name)
		return v
	}
	for _, w := range p.SMAWindows {
		ind.SMA[w] = latest(calculator.SMAColumn(w))
	}
	ind.Volatility = latest(calculator.ColVolatility)
	ind.EMAFast = latest(calculator.EMAColumn(p.MACDFast))
	ind.EMASlow = latest(calculator.EMAColumn(p.MACDSlow))
	ind.MACD = latest(calculator.ColMACD)
	ind.MACDSignal = latest(calculator.ColMACDSignal)
	ind.MACDHistogram = latest(calculator.ColMACDHistogram)
	ind.RSI = latest(calculator.ColRSI)

	// The label at the last bar is undefined by construction; report the most recent defined pair.
	ind.LabelDate = bar.Time
	if last > 0 {
		ind.LabelDate = s.Bar(last - 1).Time
		ind.NextReturn, _ = s.At(calculator.ColNextReturn, last-1)
		ind.Target, _ = s.At(calculator.ColTarget, last-1)
	}

	bars := s.Bars()
	if high, low, err := calculator.PriceRange(bars, calculator.TradingDays52w); err == nil {
		ind.High52w = high
		ind.Low52w = low
		if pos, err := calculator.RangePosition(bar.Close, high, low); err == nil {
			ind.Position52w = pos
		}
	}
	return ind
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, series.ErrEmptySeries),
		errors.Is(err, series.ErrNonMonotonicTime),
		errors.Is(err, series.ErrInvalidBar):
		return "invalid_series"
	default:
		return "error"
	}
}
