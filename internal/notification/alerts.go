package notification

import (
	"fmt"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

// EntryAlert describes a newly opened position.
func EntryAlert(symbol string, pos model.Position) Alert {
	lv := pos.Levels()
	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("%s %s entered", symbol, pos.Direction),
		Message: fmt.Sprintf("ENTER %s #%d at $%.2f", pos.Direction, pos.TradeNo, pos.EntryPrice),
		Fields: map[string]string{
			"trade_no":    fmt.Sprint(pos.TradeNo),
			"entry_price": fmt.Sprintf("%.2f", pos.EntryPrice),
			"stop_loss":   fmt.Sprintf("%.2f", lv.StopLoss),
			"take_profit": fmt.Sprintf("%.2f", lv.TakeProfit),
		},
		TS: pos.EntryTime,
	}
}

// ExitAlert describes a finalized trade. Losing trades are warnings.
func ExitAlert(symbol string, row model.TradeRow, message string) Alert {
	level := AlertInfo
	if row.NetProfit < 0 {
		level = AlertWarning
	}
	return Alert{
		Level:   level,
		Title:   fmt.Sprintf("%s %s closed: %s", symbol, row.Direction, row.ExitReason),
		Message: message,
		Fields: map[string]string{
			"trade_no":     fmt.Sprint(row.TradeNo),
			"exit_price":   fmt.Sprintf("%.2f", row.ExitPrice),
			"fee":          fmt.Sprintf("%.6f", row.Fee),
			"net_profit":   fmt.Sprintf("%.4f", row.NetProfit),
			"total_profit": fmt.Sprintf("%.4f", row.CumulativeProfit),
		},
		TS: row.ExitTime,
	}
}
