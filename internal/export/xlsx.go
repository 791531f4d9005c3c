// Package export writes the trade ledger as a spreadsheet, one row per
// trade, in the column layout traders already use.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

const sheetName = "Trades"

// Header is the fixed column schema.
var Header = []string{
	"Trade No", "Trade Type",
	"Entry Date", "Entry Time", "Entry Price",
	"Exit Date", "Exit Time", "Exit Price",
	"Trade Fee", "Profit", "Total Profit",
	"Take Profit Percentage", "Stop Loss Percentage",
	"Trailing Trigger Percentage", "Trailing Margin Percentage",
	"Trade Cost Percentage",
}

// Record renders one ledger row as spreadsheet cells. Exit cells are nil
// while the trade is open. Dates and times are shown in loc.
func Record(r model.TradeRow, loc *time.Location) []any {
	if loc == nil {
		loc = time.UTC
	}
	entry := r.EntryTime.In(loc)
	out := []any{
		r.TradeNo, r.Direction.Title(),
		entry.Format("2006-01-02"), entry.Format("15:04:05"), r.EntryPrice,
		nil, nil, nil,
		nil, nil, r.CumulativeProfit,
		r.Params.TakeProfitPct, r.Params.StopLossPct,
		r.Params.TrailingTriggerPct, r.Params.TrailingMarginPct,
		r.Params.FeeRatePct,
	}
	if r.Closed {
		exit := r.ExitTime.In(loc)
		out[5], out[6], out[7] = exit.Format("2006-01-02"), exit.Format("15:04:05"), r.ExitPrice
		out[8], out[9] = r.Fee, r.NetProfit
	}
	return out
}

// XLSXWriter rewrites the whole ledger spreadsheet on every export.
type XLSXWriter struct {
	path string
	loc  *time.Location
	mu   sync.Mutex
}

// NewXLSXWriter creates a spreadsheet sink writing to path.
func NewXLSXWriter(path string, loc *time.Location) *XLSXWriter {
	if loc == nil {
		loc = time.UTC
	}
	return &XLSXWriter{path: path, loc: loc}
}

// Name identifies the sink in logs.
func (w *XLSXWriter) Name() string { return "xlsx" }

// ExportLedger writes all rows to a fresh workbook and swaps it into place.
func (w *XLSXWriter) ExportLedger(_ context.Context, rows []model.TradeRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		rec := Record(r, w.loc)
		if err := f.SetSheetRow(sheetName, cell, &rec); err != nil {
			return fmt.Errorf("xlsx trade %d: %w", r.TradeNo, err)
		}
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+filepath.Base(w.path)+".tmp.xlsx")
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("xlsx save: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("xlsx rename: %w", err)
	}
	return nil
}
