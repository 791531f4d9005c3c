package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

func ist(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

func rows() []model.TradeRow {
	t0 := time.Date(2025, 5, 1, 18, 45, 0, 0, time.UTC) // 00:15 next day in IST
	p := model.TradeParams{TakeProfitPct: 0.02, StopLossPct: 0.005, TrailingTriggerPct: 0.002,
		TrailingMarginPct: 0.005, FeeRatePct: 0.0005, GSTRate: 0.18, LotSize: 100, LotsPerUnit: 1000}
	return []model.TradeRow{
		{TradeNo: 1, Direction: model.Long, EntryPrice: 100, EntryTime: t0, Closed: true,
			ExitPrice: 102, ExitTime: t0.Add(40 * time.Second), Fee: 0.011918, NetProfit: 0.188082,
			CumulativeProfit: 0.188082, Params: p},
		{TradeNo: 2, Direction: model.Short, EntryPrice: 101, EntryTime: t0.Add(2 * time.Minute), Params: p},
	}
}

func TestRecord(t *testing.T) {
	rs := rows()
	rec := Record(rs[0], ist(t))
	require.Len(t, rec, len(Header))
	assert.Equal(t, "Long", rec[1])
	assert.Equal(t, "2025-05-02", rec[2])
	assert.Equal(t, "00:15:00", rec[3])
	assert.Equal(t, "00:15:40", rec[6])
	assert.Equal(t, 0.011918, rec[8])

	open := Record(rs[1], ist(t))
	assert.Equal(t, "Short", open[1])
	assert.Nil(t, open[5])
	assert.Nil(t, open[9])
	assert.Equal(t, 0.0, open[10])
}

func TestXLSXWriter_ExportLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trades.xlsx")
	w := NewXLSXWriter(path, ist(t))

	require.NoError(t, w.ExportLedger(context.Background(), rows()[:1]))
	require.NoError(t, w.ExportLedger(context.Background(), rows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Header, got[0])
	assert.Equal(t, "1", got[1][0])
	assert.Equal(t, "Long", got[1][1])
	assert.Equal(t, "Short", got[2][1])
	assert.Equal(t, "", got[2][5], "open trade has no exit date")
}
