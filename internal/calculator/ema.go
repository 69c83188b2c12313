package calculator

import (
	"fmt"

	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first observation. Every position is defined.
func EMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSpan, span)
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// MACDResult holds the MACD family of columns.
type MACDResult struct {
	Fast      []float64
	Slow      []float64
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA_fast - EMA_slow, its signal-span EMA, and the histogram.
func MACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	emaFast, err := EMA(closes, fast)
	if err != nil {
		return nil, fmt.Errorf("fast ema: %w", err)
	}
	emaSlow, err := EMA(closes, slow)
	if err != nil {
		return nil, fmt.Errorf("slow ema: %w", err)
	}
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	sig, err := EMA(macd, signal)
	if err != nil {
		return nil, fmt.Errorf("signal ema: %w", err)
	}
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return &MACDResult{Fast: emaFast, Slow: emaSlow, MACD: macd, Signal: sig, Histogram: hist}, nil
}

// defined wraps a fully defined float slice as a Column.
func defined(values []float64) series.Column {
	out := make(series.Column, len(values))
	for i, v := range values {
		out[i] = model.Some(v)
	}
	return out
}
