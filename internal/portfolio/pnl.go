package portfolio

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

// Settlement is the realized result of closing a position.
type Settlement struct {
	GrossPnL  float64
	Fee       float64
	NetProfit float64
}

// Settle computes gross P&L, the round-trip fee and net profit for closing
// pos at exitPrice. Arithmetic is done in decimal so that fee scenarios like
// (100+102) x 0.0005 x 0.1 x 1.18 come out exact.
func Settle(pos model.Position, exitPrice float64) Settlement {
	p := pos.Params
	entry := decimal.NewFromFloat(pos.EntryPrice)
	exit := decimal.NewFromFloat(exitPrice)
	unit := decimal.NewFromFloat(p.LotSize)
	if p.LotsPerUnit != 0 {
		unit = unit.Div(decimal.NewFromFloat(p.LotsPerUnit))
	} else {
		unit = decimal.Zero
	}

	diff := exit.Sub(entry)
	if pos.Direction == model.Short {
		diff = entry.Sub(exit)
	}
	gross := diff.Mul(unit)
	fee := RoundTripFee(pos.EntryPrice, exitPrice, p)
	net := gross.Sub(fee)

	return Settlement{
		GrossPnL:  gross.InexactFloat64(),
		Fee:       fee.InexactFloat64(),
		NetProfit: net.InexactFloat64(),
	}
}

// RoundTripFee = (entry + exit) x feeRate x unitSize x (1 + gst).
func RoundTripFee(entryPrice, exitPrice float64, p model.TradeParams) decimal.Decimal {
	if p.LotsPerUnit == 0 {
		return decimal.Zero
	}
	notional := decimal.NewFromFloat(entryPrice).Add(decimal.NewFromFloat(exitPrice))
	unit := decimal.NewFromFloat(p.LotSize).Div(decimal.NewFromFloat(p.LotsPerUnit))
	gst := decimal.NewFromInt(1).Add(decimal.NewFromFloat(p.GSTRate))
	return notional.Mul(decimal.NewFromFloat(p.FeeRatePct)).Mul(unit).Mul(gst)
}

// ExitMessage renders the human-readable exit line for the trade log.
func ExitMessage(dir model.Direction, reason model.ExitReason, gross float64) string {
	switch reason {
	case model.ExitTakeProfit:
		return fmt.Sprintf("EXIT %s: Take-profit hit | Profit: $%.2f", dir, gross)
	case model.ExitTrailingStop:
		result := "Profit"
		if gross < 0 {
			result = "Loss"
		}
		return fmt.Sprintf("EXIT %s: Trailing stop hit | %s: $%.2f", dir, result, math.Abs(gross))
	case model.ExitStopLoss:
		return fmt.Sprintf("EXIT %s: Stop-loss hit | Loss: $%.2f", dir, math.Abs(gross))
	}
	return fmt.Sprintf("EXIT %s: %s | P&L: $%.2f", dir, reason, gross)
}
