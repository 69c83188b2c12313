package strategy

import (
	"errors"
	"fmt"

	"StockPredictor/internal/calculator"
	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

// ErrIndicatorsUndefined is returned when RSI or MACD has no value at the latest position.
var ErrIndicatorsUndefined = errors.New("indicators undefined at latest position")

// Thresholds are the RSI bands used by the classifier.
type Thresholds struct {
	Oversold   float64
	Overbought float64
}

// DefaultThresholds returns the 30/70 RSI bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Oversold: 30, Overbought: 70}
}

// Classify maps the latest RSI and MACD readings to a trade signal:
//
//	BUY  when RSI < oversold   and MACD > 0
//	SELL when RSI > overbought and MACD < 0
//	HOLD otherwise
func Classify(rsi, macd model.Value, th Thresholds) (*model.TradeSignal, error) {
	r, rok := rsi.Get()
	m, mok := macd.Get()
	if !rok || !mok {
		return nil, fmt.Errorf("%w: rsi=%s macd=%s", ErrIndicatorsUndefined, rsi, macd)
	}

	signal := &model.TradeSignal{
		Action: model.ActionHold,
		RSI:    r,
		MACD:   m,
		Zone:   Zone(r, th),
	}
	switch {
	case r < th.Oversold && m > 0:
		signal.Action = model.ActionBuy
	case r > th.Overbought && m < 0:
		signal.Action = model.ActionSell
	}
	signal.Reason = reason(signal)
	return signal, nil
}

// Evaluate classifies the latest position of a computed series. The series
// must carry RSI and MACD columns and hold at least Params.MinHistory bars for
// both to be defined.
func Evaluate(s *series.Series, th Thresholds) (*model.TradeSignal, error) {
	rsi, err := s.Latest(calculator.ColRSI)
	if err != nil {
		return nil, err
	}
	macd, err := s.Latest(calculator.ColMACD)
	if err != nil {
		return nil, err
	}
	return Classify(rsi, macd, th)
}
