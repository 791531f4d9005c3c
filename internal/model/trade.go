package model

import "time"

// ExitReason identifies which exit condition closed a position.
type ExitReason string

const (
	ExitTakeProfit   ExitReason = "TAKE_PROFIT"
	ExitTrailingStop ExitReason = "TRAILING_STOP"
	ExitStopLoss     ExitReason = "STOP_LOSS"
)

// TradeRow is one ledger row. Entry fields are set at entry; exit fields,
// Fee, NetProfit and CumulativeProfit are filled once when Closed flips.
type TradeRow struct {
	TradeNo          int         `json:"trade_no"`
	RunID            string      `json:"run_id"`
	Direction        Direction   `json:"direction"`
	EntryPrice       float64     `json:"entry_price"`
	EntryTime        time.Time   `json:"entry_time"`
	Closed           bool        `json:"closed"`
	ExitPrice        float64     `json:"exit_price,omitempty"`
	ExitTime         time.Time   `json:"exit_time,omitempty"`
	ExitReason       ExitReason  `json:"exit_reason,omitempty"`
	GrossPnL         float64     `json:"gross_pnl,omitempty"`
	Fee              float64     `json:"fee,omitempty"`
	NetProfit        float64     `json:"net_profit,omitempty"`
	CumulativeProfit float64     `json:"cumulative_profit"`
	Params           TradeParams `json:"params"`
}

// ClosedTrade is the settled view of a finalized row.
type ClosedTrade struct {
	TradeNo          int        `json:"trade_no"`
	Direction        Direction  `json:"direction"`
	EntryPrice       float64    `json:"entry_price"`
	EntryTime        time.Time  `json:"entry_time"`
	ExitPrice        float64    `json:"exit_price"`
	ExitTime         time.Time  `json:"exit_time"`
	Reason           ExitReason `json:"reason"`
	GrossPnL         float64    `json:"gross_pnl"`
	Fee              float64    `json:"fee"`
	NetProfit        float64    `json:"net_profit"`
	CumulativeProfit float64    `json:"cumulative_profit"`
}

// ClosedTrade returns the settled view of a finalized row.
func (r TradeRow) ClosedTrade() ClosedTrade {
	return ClosedTrade{
		TradeNo:          r.TradeNo,
		Direction:        r.Direction,
		EntryPrice:       r.EntryPrice,
		EntryTime:        r.EntryTime,
		ExitPrice:        r.ExitPrice,
		ExitTime:         r.ExitTime,
		Reason:           r.ExitReason,
		GrossPnL:         r.GrossPnL,
		Fee:              r.Fee,
		NetProfit:        r.NetProfit,
		CumulativeProfit: r.CumulativeProfit,
	}
}
