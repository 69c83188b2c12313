package calculator

import (
	"errors"
	"fmt"
	"strconv"

	"StockPredictor/internal/series"
)

// Column names written by Apply.
const (
	ColVolatility    = "Volatility"
	ColMACD          = "MACD"
	ColMACDSignal    = "MACD_Signal"
	ColMACDHistogram = "MACD_Histogram"
	ColRSI           = "RSI"
	ColNextReturn    = "Next_Day_Return"
	ColTarget        = "Target"
)

// SMAColumn returns the column name for a simple moving average window, e.g. "SMA_20".
func SMAColumn(window int) string { return "SMA_" + strconv.Itoa(window) }

// EMAColumn returns the column name for an exponential moving average span, e.g. "EMA_12".
func EMAColumn(span int) string { return "EMA_" + strconv.Itoa(span) }

// Params configures the indicator pipeline.
type Params struct {
	SMAWindows       []int
	VolatilityWindow int
	RSIPeriod        int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
	TargetThreshold  float64
}

// DefaultParams returns the reference configuration.
func DefaultParams() Params {
	return Params{
		SMAWindows:       []int{5, 10, 20, 50, 100, 200},
		VolatilityWindow: 20,
		RSIPeriod:        14,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		TargetThreshold:  DefaultTargetThreshold,
	}
}

// MinHistory is the number of bars needed before RSI and MACD are both defined at the latest position.
func (p Params) MinHistory() int {
	return max(p.RSIPeriod, p.MACDSlow) + 1
}

// Validate rejects non-positive windows and spans.
func (p Params) Validate() error {
	seen := map[int]bool{}
	for _, w := range p.SMAWindows {
		if w <= 0 {
			return fmt.Errorf("sma window: %w: %d", ErrInvalidWindow, w)
		}
		if seen[w] {
			return fmt.Errorf("sma window %d listed twice", w)
		}
		seen[w] = true
	}
	if p.VolatilityWindow <= 0 {
		return fmt.Errorf("volatility window: %w: %d", ErrInvalidWindow, p.VolatilityWindow)
	}
	if p.RSIPeriod <= 0 {
		return fmt.Errorf("rsi period: %w: %d", ErrInvalidWindow, p.RSIPeriod)
	}
	for _, span := range []int{p.MACDFast, p.MACDSlow, p.MACDSignal} {
		if span <= 0 {
			return fmt.Errorf("macd: %w: %d", ErrInvalidSpan, span)
		}
	}
	if p.MACDFast == p.MACDSlow {
		return errors.New("macd fast and slow spans must differ")
	}
	return nil
}

// Apply computes every indicator column and returns a new Series. The input
// Series is left untouched. Columns are added in dependency order: rolling and
// exponential statistics, then RSI, then the next-day label.
func Apply(s *series.Series, p Params) (*series.Series, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	closes := s.Closes()
	out := s

	add := func(name string, col series.Column) error {
		next, err := out.With(name, col)
		if err != nil {
			return err
		}
		out = next
		return nil
	}

	for _, w := range p.SMAWindows {
		col, err := SMA(closes, w)
		if err != nil {
			return nil, err
		}
		if err := add(SMAColumn(w), col); err != nil {
			return nil, err
		}
	}

	vol, err := RollingStd(closes, p.VolatilityWindow)
	if err != nil {
		return nil, err
	}
	if err := add(ColVolatility, vol); err != nil {
		return nil, err
	}

	m, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, err
	}
	for _, c := range []struct {
		name   string
		values []float64
	}{
		{EMAColumn(p.MACDFast), m.Fast},
		{EMAColumn(p.MACDSlow), m.Slow},
		{ColMACD, m.MACD},
		{ColMACDSignal, m.Signal},
		{ColMACDHistogram, m.Histogram},
	} {
		if err := add(c.name, defined(c.values)); err != nil {
			return nil, err
		}
	}

	rsi, err := RSI(closes, p.RSIPeriod)
	if err != nil {
		return nil, err
	}
	if err := add(ColRSI, rsi); err != nil {
		return nil, err
	}

	next := NextReturn(closes)
	if err := add(ColNextReturn, next); err != nil {
		return nil, err
	}
	if err := add(ColTarget, Target(next, p.TargetThreshold)); err != nil {
		return nil, err
	}
	return out, nil
}
