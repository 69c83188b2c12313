package model

// TriggerType indicates what started an analysis run.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
	TriggerAPI       TriggerType = "API"
	TriggerCommand   TriggerType = "COMMAND"
)

// Action is the discrete trade signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// RSIZone classifies an RSI reading against the oversold/overbought bands.
type RSIZone string

const (
	ZoneOversold   RSIZone = "OVERSOLD"
	ZoneNeutral    RSIZone = "NEUTRAL"
	ZoneOverbought RSIZone = "OVERBOUGHT"
)

// TradeSignal is the output of the signal classifier.
type TradeSignal struct {
	Action Action  `json:"action"`
	RSI    float64 `json:"rsi"`
	MACD   float64 `json:"macd"`
	Zone   RSIZone `json:"rsi_zone"`
	Reason string  `json:"reason"`
}
