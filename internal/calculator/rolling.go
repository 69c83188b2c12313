package calculator

import (
	"errors"
	"fmt"
	"math"

	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

var (
	ErrInvalidWindow = errors.New("window must be positive")
	ErrInvalidSpan   = errors.New("span must be positive")
)

// SMA computes the simple moving average of values over window.
// Positions i < window-1 are undefined.
func SMA(values []float64, window int) (series.Column, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	out := make(series.Column, len(values))
	for i := window - 1; i < len(values); i++ {
		out[i] = model.Some(mean(values[i-window+1 : i+1]))
	}
	return out, nil
}

// RollingStd computes the sample (N-1) standard deviation over window.
// A window of 1 has no degrees of freedom and is undefined everywhere.
func RollingStd(values []float64, window int) (series.Column, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	out := make(series.Column, len(values))
	if window == 1 {
		return out, nil
	}
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		m := mean(w)
		ss := 0.0
		for _, v := range w {
			ss += (v - m) * (v - m)
		}
		out[i] = model.Some(math.Sqrt(ss / float64(window-1)))
	}
	return out, nil
}

// Each window is summed on its own so a value never carries rounding from earlier data.
func mean(w []float64) float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum / float64(len(w))
}
