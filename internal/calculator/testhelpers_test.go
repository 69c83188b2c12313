package calculator

import (
	"time"

	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

func makeBars(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func rising(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// wave is a deterministic, non-monotonic close series.
func wave(n int) []float64 {
	out := make([]float64, n)
	p := 100.0
	for i := range out {
		switch i % 5 {
		case 0, 1, 3:
			p += 1.5
		default:
			p -= 2.25
		}
		out[i] = p
	}
	return out
}

func mustLoad(closes []float64) *series.Series {
	s, err := series.Load(makeBars(closes))
	if err != nil {
		panic(err)
	}
	return s
}
