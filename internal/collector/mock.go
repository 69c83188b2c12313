package collector

import (
	"context"
	"math"
	"time"

	"StockPredictor/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error
	End       time.Time // last bar date; zero means today
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		out := make([]model.OHLCV, len(m.DailyData))
		copy(out, m.DailyData)
		return out, nil
	}
	end := m.End
	if end.IsZero() {
		end = time.Now()
	}
	return GenerateMockBars(m.Price, days, end), nil
}

// GenerateMockBars builds count consecutive daily bars ending at end, with a
// slow uptrend and a deterministic oscillation around basePrice.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	end = dailyTime(end)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * math.Exp(float64(i-count/2)*0.001) * (1 + 0.03*math.Sin(float64(i)/5))
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
