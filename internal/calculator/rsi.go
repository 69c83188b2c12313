package calculator

import (
	"fmt"

	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

// RSI computes the relative strength index from simple rolling means of
// gains and losses over period deltas. Positions i < period are undefined.
//
// Zero average loss with positive average gain is 100. A flat window (both
// averages zero) carries no direction and is undefined.
func RSI(closes []float64, period int) (series.Column, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, period)
	}
	out := make(series.Column, len(closes))
	if len(closes) <= period {
		return out, nil
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := period; i < len(closes); i++ {
		avgGain := mean(gains[i-period+1 : i+1])
		avgLoss := mean(losses[i-period+1 : i+1])
		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = model.Undefined
		case avgLoss == 0:
			out[i] = model.Some(100)
		default:
			rs := avgGain / avgLoss
			out[i] = model.Some(100.0 - 100.0/(1.0+rs))
		}
	}
	return out, nil
}
