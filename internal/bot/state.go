package bot

import (
	"math"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/portfolio"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/strategy"
)

// buildState assembles the dashboard snapshot for this tick. res is the
// step result when a position was open at the start of the tick.
func (b *Bot) buildState(s model.PriceSample, snap model.IndicatorSnapshot, res *portfolio.StepResult) model.BotState {
	state := model.BotState{
		RunID:        b.runID,
		Timestamp:    b.now().In(b.loc).Format(time.DateTime),
		TickTime:     s.TS.In(b.loc).Format(time.DateTime),
		BotStatus:    model.StatusIdle,
		CurrentPrice: s.Price,
		Position:     &model.PositionView{},
		Indicators:   indicatorViews(s.Price, snap, &b.strategy),
		TotalProfit:  round(b.ledger.CumulativeProfit(), 2),
	}

	pos := b.tracker.Position()
	if pos == nil {
		return state
	}

	state.BotStatus = model.StatusRunning
	lv := pos.Levels()
	pnl, pct := pos.UnrealizedPnL(s.Price)
	if res != nil && res.Exit == nil {
		lv, pnl, pct = res.Levels, res.PnL, res.PnLPercent
	}
	state.Position = &model.PositionView{
		Active:       true,
		TradeNo:      pos.TradeNo,
		Type:         pos.Direction,
		EntryPrice:   pos.EntryPrice,
		EntryTime:    pos.EntryTime.In(b.loc).Format(time.DateTime),
		StopLoss:     round(lv.StopLoss, 2),
		TakeProfit:   round(lv.TakeProfit, 2),
		TrailingStop: round(lv.TrailingStop, 2),
		PnL:          round(pnl, 2),
		PnLPercent:   round(pct, 2),
	}
	return state
}

// indicatorViews reports every indicator regardless of its enable flag.
// MACD keeps four decimals, the rest two.
func indicatorViews(price float64, snap model.IndicatorSnapshot, cfg *strategy.Config) map[string]model.IndicatorView {
	values := map[string]model.Reading{
		model.IndEMA:  snap.EMA.Round(2),
		model.IndMACD: snap.MACD.Round(4),
		model.IndRSI:  snap.RSI.Round(2),
		model.IndVWAP: snap.VWAP.Round(2),
	}
	out := make(map[string]model.IndicatorView, len(model.IndicatorNames))
	for _, name := range model.IndicatorNames {
		out[name] = model.IndicatorView{
			Value:  values[name],
			Used:   cfg.Enabled(name),
			Signal: string(strategy.IndicatorSignal(name, price, snap, cfg)),
		}
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
