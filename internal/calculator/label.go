package calculator

import (
	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

// DefaultTargetThreshold is the next-day return above which Target is 1.
const DefaultTargetThreshold = 0.005

// NextReturn computes close[i+1]/close[i] - 1. The last position is undefined.
func NextReturn(closes []float64) series.Column {
	out := make(series.Column, len(closes))
	for i := 0; i+1 < len(closes); i++ {
		out[i] = model.Some(closes[i+1]/closes[i] - 1)
	}
	return out
}

// Target labels each defined next return: 1 above threshold, otherwise 0.
func Target(nextReturn series.Column, threshold float64) series.Column {
	out := make(series.Column, len(nextReturn))
	for i, r := range nextReturn {
		v, ok := r.Get()
		if !ok {
			continue
		}
		if v > threshold {
			out[i] = model.Some(1)
		} else {
			out[i] = model.Some(0)
		}
	}
	return out
}
