package collector

import (
	"context"

	"StockPredictor/internal/model"
)

// Fetcher retrieves daily bars for a symbol, ordered oldest first.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}
