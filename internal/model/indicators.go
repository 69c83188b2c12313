package model

import "time"

// MarketIndicators holds the latest-position values of a computed series.
type MarketIndicators struct {
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	PrevClose Value     `json:"prev_close"`
	Change    Value     `json:"change"`
	ChangePct Value     `json:"change_pct"`

	SMA           map[int]Value `json:"sma"`
	Volatility    Value         `json:"volatility"`
	EMAFast       Value         `json:"ema_fast"`
	EMASlow       Value         `json:"ema_slow"`
	MACD          Value         `json:"macd"`
	MACDSignal    Value         `json:"macd_signal"`
	MACDHistogram Value         `json:"macd_histogram"`
	RSI           Value         `json:"rsi"`

	// NextReturn and Target are undefined at the latest bar by construction;
	// the pair reported here is the most recent position where they are defined.
	LabelDate  time.Time `json:"label_date"`
	NextReturn Value     `json:"next_return"`
	Target     Value     `json:"target"`

	High52w     float64 `json:"high_52w"`
	Low52w      float64 `json:"low_52w"`
	Position52w float64 `json:"position_52w"` // 0.0 ~ 1.0
}

// Analysis is the result of one pipeline run for a symbol.
type Analysis struct {
	Symbol      string           `json:"symbol"`
	Source      string           `json:"source"`
	Bars        int              `json:"bars"`
	Indicators  MarketIndicators `json:"indicators"`
	Signal      TradeSignal      `json:"signal"`
	TriggerType TriggerType      `json:"trigger"`
	GeneratedAt time.Time        `json:"generated_at"`

	// Profile is attached when a profile source is configured and reachable.
	Profile *CompanyProfile `json:"profile,omitempty"`
}
