// Package portfolio runs the single-position state machine.
//
// A Tracker is FLAT or holds exactly one LONG or SHORT position. Each tick
// while open, Step ratchets the trailing stop, recomputes exit levels and
// checks take-profit, trailing stop and stop-loss in that order. The first
// exit that fires settles the trade into the ledger and returns to FLAT.
package portfolio

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/ledger"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

var (
	ErrPositionOpen = errors.New("portfolio: position already open")
	ErrNoPosition   = errors.New("portfolio: no open position")
)

// Exit describes a position that closed on this tick.
type Exit struct {
	Reason  model.ExitReason
	Price   float64
	Time    time.Time
	Trade   model.TradeRow
	Message string
	Settlement
}

// StepResult is what a tick did to the open position.
type StepResult struct {
	Levels          model.Levels
	TrailingUpdated bool
	PrevExtreme     float64
	PnL             float64
	PnLPercent      float64
	Exit            *Exit
}

// Tracker owns at most one open position and settles it into a ledger.
// Not safe for concurrent use; ticks are processed sequentially.
type Tracker struct {
	params model.TradeParams
	ledger *ledger.Ledger
	runID  string
	logger *slog.Logger

	pos    *model.Position
	nextNo int
}

// NewTracker creates a flat tracker. params is copied into each position at
// entry; later config changes never affect an open position.
func NewTracker(params model.TradeParams, l *ledger.Ledger, runID string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		params: params,
		ledger: l,
		runID:  runID,
		logger: logger.With("component", "portfolio"),
	}
}

// Position returns a copy of the open position, or nil when flat.
func (t *Tracker) Position() *model.Position {
	if t.pos == nil {
		return nil
	}
	cp := *t.pos
	return &cp
}

// IsOpen reports whether a position is open.
func (t *Tracker) IsOpen() bool { return t.pos != nil }

// NextTradeNo is the number the next entry will use.
func (t *Tracker) NextTradeNo() int {
	n := t.ledger.NextTradeNo()
	if t.nextNo > n {
		n = t.nextNo
	}
	return n
}

// Open enters a position at price. It fails with ErrPositionOpen when a
// position already exists.
func (t *Tracker) Open(dir model.Direction, price float64, at time.Time) (model.Position, error) {
	if t.pos != nil {
		return model.Position{}, fmt.Errorf("%w: trade %d", ErrPositionOpen, t.pos.TradeNo)
	}
	if dir != model.Long && dir != model.Short {
		return model.Position{}, fmt.Errorf("portfolio: invalid direction %q", dir)
	}

	pos := model.Position{
		TradeNo:      t.NextTradeNo(),
		Direction:    dir,
		EntryPrice:   price,
		EntryTime:    at,
		ExtremePrice: price,
		Params:       t.params,
	}
	row := model.TradeRow{
		TradeNo:    pos.TradeNo,
		RunID:      t.runID,
		Direction:  dir,
		EntryPrice: price,
		EntryTime:  at,
		Params:     pos.Params,
	}
	if err := t.ledger.Open(row); err != nil {
		return model.Position{}, fmt.Errorf("open trade %d: %w", pos.TradeNo, err)
	}

	t.pos = &pos
	t.nextNo = pos.TradeNo + 1

	lv := pos.Levels()
	t.logger.Info(fmt.Sprintf("ENTER %s: Entry Price=$%.2f | Stop Loss=$%.2f", dir, price, lv.StopLoss),
		"trade_no", pos.TradeNo, "direction", dir, "entry_price", price,
		"stop_loss", lv.StopLoss, "take_profit", lv.TakeProfit)
	return pos, nil
}

// Step advances the open position by one tick at price.
func (t *Tracker) Step(price float64, at time.Time) (StepResult, error) {
	pos := t.pos
	if pos == nil {
		return StepResult{}, ErrNoPosition
	}

	res := StepResult{PrevExtreme: pos.ExtremePrice}
	res.TrailingUpdated = t.ratchet(pos, price)
	res.Levels = pos.Levels()
	res.PnL, res.PnLPercent = pos.UnrealizedPnL(price)

	reason, hit := exitReason(pos.Direction, price, res.Levels)
	if !hit {
		t.logger.Debug("position watch",
			"trade_no", pos.TradeNo, "price", price, "pnl", res.PnL, "pnl_pct", res.PnLPercent,
			"trailing_stop", res.Levels.TrailingStop, "stop_loss", res.Levels.StopLoss)
		return res, nil
	}

	s := Settle(*pos, price)
	exit := &Exit{
		Reason:     reason,
		Price:      price,
		Time:       at,
		Message:    ExitMessage(pos.Direction, reason, s.GrossPnL),
		Settlement: s,
	}

	row, err := t.ledger.Close(pos.TradeNo, ledger.Exit{
		Price:     price,
		Time:      at,
		Reason:    reason,
		GrossPnL:  s.GrossPnL,
		Fee:       s.Fee,
		NetProfit: s.NetProfit,
	})
	if err != nil {
		// position stays open; the exit is retried on the next tick
		return res, fmt.Errorf("close trade %d: %w", pos.TradeNo, err)
	}
	t.pos = nil
	exit.Trade = row
	res.Exit = exit

	t.logger.Info(exit.Message,
		"trade_no", pos.TradeNo, "reason", reason, "exit_price", price,
		"gross_pnl", s.GrossPnL, "fee", s.Fee, "net_profit", s.NetProfit,
		"total_profit", row.CumulativeProfit)
	return res, nil
}

// Restore reinstates a checkpointed position. nextNo is a floor for the next
// trade number in case the ledger store lags the checkpoint.
func (t *Tracker) Restore(pos *model.Position, nextNo int) error {
	if t.pos != nil {
		return ErrPositionOpen
	}
	if pos != nil {
		cp := *pos
		if _, ok := t.ledger.Row(cp.TradeNo); !ok {
			row := model.TradeRow{
				TradeNo:    cp.TradeNo,
				RunID:      t.runID,
				Direction:  cp.Direction,
				EntryPrice: cp.EntryPrice,
				EntryTime:  cp.EntryTime,
				Params:     cp.Params,
			}
			if err := t.ledger.Open(row); err != nil {
				return fmt.Errorf("restore trade %d: %w", cp.TradeNo, err)
			}
		}
		t.pos = &cp
		if nextNo <= cp.TradeNo {
			nextNo = cp.TradeNo + 1
		}
	}
	t.nextNo = nextNo
	return nil
}

// ratchet advances the extreme price when the favorable move since the last
// extreme reaches the trigger and the new trailing stop would sit beyond the
// fixed stop-loss.
func (t *Tracker) ratchet(pos *model.Position, price float64) bool {
	p := pos.Params
	stopLoss := pos.Levels().StopLoss
	old := pos.ExtremePrice
	if old == 0 {
		return false
	}

	switch pos.Direction {
	case model.Long:
		if price <= old || (price-old)/old < p.TrailingTriggerPct {
			return false
		}
		if price*(1-p.TrailingMarginPct) <= stopLoss {
			return false
		}
	case model.Short:
		if price >= old || (old-price)/old < p.TrailingTriggerPct {
			return false
		}
		if price*(1+p.TrailingMarginPct) >= stopLoss {
			return false
		}
	default:
		return false
	}

	oldStop := pos.Levels().TrailingStop
	pos.ExtremePrice = price
	newStop := pos.Levels().TrailingStop
	t.logger.Info(fmt.Sprintf("%s Trailing updated: %.2f -> %.2f | Stop: %.2f", pos.Direction, old, price, newStop),
		"trade_no", pos.TradeNo, "extreme_old", old, "extreme_new", price)
	t.logger.Debug("trailing stop moved",
		"trade_no", pos.TradeNo, "stop_old", oldStop, "stop_new", newStop)
	return true
}

// exitReason checks exits in priority order: take-profit, trailing stop,
// stop-loss.
func exitReason(dir model.Direction, price float64, lv model.Levels) (model.ExitReason, bool) {
	if dir == model.Short {
		switch {
		case price <= lv.TakeProfit:
			return model.ExitTakeProfit, true
		case price >= lv.TrailingStop:
			return model.ExitTrailingStop, true
		case price >= lv.StopLoss:
			return model.ExitStopLoss, true
		}
		return "", false
	}
	switch {
	case price >= lv.TakeProfit:
		return model.ExitTakeProfit, true
	case price <= lv.TrailingStop:
		return model.ExitTrailingStop, true
	case price <= lv.StopLoss:
		return model.ExitStopLoss, true
	}
	return "", false
}
