package strategy

import (
	"fmt"

	"StockPredictor/internal/model"
)

// Zone places an RSI reading into the oversold/neutral/overbought bands.
func Zone(rsi float64, th Thresholds) model.RSIZone {
	switch {
	case rsi > th.Overbought:
		return model.ZoneOverbought
	case rsi < th.Oversold:
		return model.ZoneOversold
	default:
		return model.ZoneNeutral
	}
}

func reason(sig *model.TradeSignal) string {
	momentum := "flat"
	switch {
	case sig.MACD > 0:
		momentum = "positive"
	case sig.MACD < 0:
		momentum = "negative"
	}

	switch sig.Action {
	case model.ActionBuy:
		return fmt.Sprintf("RSI %.1f oversold with positive MACD %.3f", sig.RSI, sig.MACD)
	case model.ActionSell:
		return fmt.Sprintf("RSI %.1f overbought with negative MACD %.3f", sig.RSI, sig.MACD)
	}
	switch sig.Zone {
	case model.ZoneOversold:
		return fmt.Sprintf("RSI %.1f oversold but MACD momentum is %s", sig.RSI, momentum)
	case model.ZoneOverbought:
		return fmt.Sprintf("RSI %.1f overbought but MACD momentum is %s", sig.RSI, momentum)
	default:
		return fmt.Sprintf("RSI %.1f neutral, MACD momentum %s", sig.RSI, momentum)
	}
}
