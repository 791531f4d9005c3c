package model

import "encoding/json"

// Bot status values reported in the state snapshot.
const (
	StatusRunning = "RUNNING"
	StatusIdle    = "IDLE"
)

// Indicator names used as keys in criteria maps and state snapshots.
const (
	IndEMA  = "EMA"
	IndMACD = "MACD"
	IndRSI  = "RSI"
	IndVWAP = "VWAP"
)

// IndicatorNames lists indicators in display order.
var IndicatorNames = []string{IndEMA, IndMACD, IndRSI, IndVWAP}

// BotState is the per-tick snapshot consumed by the dashboard. It replaces
// the previous snapshot wholesale on every publish.
type BotState struct {
	RunID        string                   `json:"run_id"`
	Timestamp    string                   `json:"timestamp"`
	TickTime     string                   `json:"tick_time"`
	BotStatus    string                   `json:"bot_status"`
	CurrentPrice float64                  `json:"current_price"`
	Position     *PositionView            `json:"position"`
	Indicators   map[string]IndicatorView `json:"indicators"`
	TotalProfit  float64                  `json:"total_profit"`
}

// PositionView is the dashboard detail of the open position.
type PositionView struct {
	Active       bool      `json:"active"`
	TradeNo      int       `json:"trade_no"`
	Type         Direction `json:"type"`
	EntryPrice   float64   `json:"entry_price"`
	EntryTime    string    `json:"entry_time"`
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit   float64   `json:"take_profit"`
	TrailingStop float64   `json:"trailing_stop"`
	PnL          float64   `json:"pnl"`
	PnLPercent   float64   `json:"pnl_percent"`
}

// MarshalJSON renders an inactive position as an empty object.
func (p PositionView) MarshalJSON() ([]byte, error) {
	if !p.Active {
		return []byte("{}"), nil
	}
	type plain PositionView
	return json.Marshal(plain(p))
}

// IndicatorView is one indicator's value, enable flag and tick signal.
type IndicatorView struct {
	Value  Reading `json:"value"`
	Used   bool    `json:"used"`
	Signal string  `json:"signal"`
}
