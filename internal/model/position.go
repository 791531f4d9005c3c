package model

import "time"

// Direction is the side of a position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Title returns "Long" / "Short" for ledger output.
func (d Direction) Title() string {
	switch d {
	case Long:
		return "Long"
	case Short:
		return "Short"
	default:
		return string(d)
	}
}

// TradeParams is the parameter bundle frozen at entry time. All percentages
// are fractions (0.02 = 2%).
type TradeParams struct {
	TakeProfitPct      float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	StopLossPct        float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TrailingTriggerPct float64 `json:"trailing_trigger_pct" yaml:"trailing_trigger_pct"`
	TrailingMarginPct  float64 `json:"trailing_margin_pct" yaml:"trailing_margin_pct"`
	FeeRatePct         float64 `json:"fee_rate_pct" yaml:"fee_rate_pct"`
	GSTRate            float64 `json:"gst_rate" yaml:"gst_rate"`
	LotSize            float64 `json:"lot_size" yaml:"lot_size"`
	LotsPerUnit        float64 `json:"lots_per_unit" yaml:"lots_per_unit"`
}

// UnitSize is the per-unit trade size used to scale P&L and fees.
func (p TradeParams) UnitSize() float64 {
	if p.LotsPerUnit == 0 {
		return 0
	}
	return p.LotSize / p.LotsPerUnit
}

// Position is the single open position. ExtremePrice is the running high
// for LONG and the running low for SHORT.
type Position struct {
	TradeNo      int         `json:"trade_no"`
	Direction    Direction   `json:"direction"`
	EntryPrice   float64     `json:"entry_price"`
	EntryTime    time.Time   `json:"entry_time"`
	ExtremePrice float64     `json:"extreme_price"`
	Params       TradeParams `json:"params"`
}

// Levels are the exit levels of a position at a given tick.
type Levels struct {
	TakeProfit   float64 `json:"take_profit"`
	StopLoss     float64 `json:"stop_loss"`
	TrailingStop float64 `json:"trailing_stop"`
}

// Levels computes take-profit and stop-loss from the entry price and the
// trailing stop from the current extreme price.
func (p *Position) Levels() Levels {
	tp, sl, m := p.Params.TakeProfitPct, p.Params.StopLossPct, p.Params.TrailingMarginPct
	if p.Direction == Short {
		return Levels{
			TakeProfit:   p.EntryPrice * (1 - tp),
			StopLoss:     p.EntryPrice * (1 + sl),
			TrailingStop: p.ExtremePrice * (1 + m),
		}
	}
	return Levels{
		TakeProfit:   p.EntryPrice * (1 + tp),
		StopLoss:     p.EntryPrice * (1 - sl),
		TrailingStop: p.ExtremePrice * (1 - m),
	}
}

// PriceDiff is the signed per-unit move in the position's favor.
func (p *Position) PriceDiff(price float64) float64 {
	if p.Direction == Short {
		return p.EntryPrice - price
	}
	return price - p.EntryPrice
}

// UnrealizedPnL returns live P&L scaled by unit size and P&L as a percent of entry.
func (p *Position) UnrealizedPnL(price float64) (pnl, pct float64) {
	diff := p.PriceDiff(price)
	if p.EntryPrice != 0 {
		pct = diff / p.EntryPrice * 100
	}
	return diff * p.Params.UnitSize(), pct
}
