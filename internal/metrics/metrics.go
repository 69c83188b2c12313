// Package metrics exposes Prometheus collectors for pipeline runs, price
// fetches and the bar cache. All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the predictor.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal  *prometheus.CounterVec // labels: result
	AnalysisDur    prometheus.Histogram
	FetchTotal     *prometheus.CounterVec // labels: source, result
	FetchDur       *prometheus.HistogramVec
	SignalsTotal   *prometheus.CounterVec // labels: action
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	LastRSI        *prometheus.GaugeVec // labels: symbol
	LastMACD       *prometheus.GaugeVec // labels: symbol
	RecorderErrors prometheus.Counter
}

// New registers all collectors on a private registry so tests can build as many as they need.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_analyses_total",
			Help: "Pipeline runs by result (ok, fetch_error, invalid_series, insufficient_history, error)",
		}, []string{"result"}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "predictor_analysis_duration_seconds",
			Help:    "Indicator computation and classification latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_fetch_total",
			Help: "Daily bar fetches by source and result",
		}, []string{"source", "result"}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "predictor_fetch_duration_seconds",
			Help:    "Daily bar fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_signals_total",
			Help: "Signals emitted by action",
		}, []string{"action"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_bar_cache_hits_total",
			Help: "Bar cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_bar_cache_misses_total",
			Help: "Bar cache misses",
		}),
		LastRSI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "predictor_last_rsi",
			Help: "RSI at the latest bar of the last analysis",
		}, []string{"symbol"}),
		LastMACD: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "predictor_last_macd",
			Help: "MACD at the latest bar of the last analysis",
		}, []string{"symbol"}),
		RecorderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictor_recorder_errors_total",
			Help: "Failed analysis inserts",
		}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDur,
		m.FetchTotal,
		m.FetchDur,
		m.SignalsTotal,
		m.CacheHits,
		m.CacheMisses,
		m.LastRSI,
		m.LastMACD,
		m.RecorderErrors,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchTotal.WithLabelValues(source, result).Inc()
	m.FetchDur.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveAnalysis records one pipeline run.
func (m *Metrics) ObserveAnalysis(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(result).Inc()
	m.AnalysisDur.Observe(d.Seconds())
}

// ObserveSignal records the emitted action and the latest readings for symbol.
func (m *Metrics) ObserveSignal(symbol, action string, rsi, macd float64) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(action).Inc()
	m.LastRSI.WithLabelValues(symbol).Set(rsi)
	m.LastMACD.WithLabelValues(symbol).Set(macd)
}

// CacheHit counts a bar cache hit.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// CacheMiss counts a bar cache miss.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// RecorderError counts a failed insert.
func (m *Metrics) RecorderError() {
	if m != nil {
		m.RecorderErrors.Inc()
	}
}
