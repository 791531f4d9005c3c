package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

func openTemp(t *testing.T) *Writer {
	t.Helper()
	w, err := New(WriterConfig{DBPath: filepath.Join(t.TempDir(), "tradebot.db")})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

var params = model.TradeParams{
	TakeProfitPct: 0.02, StopLossPct: 0.005, TrailingTriggerPct: 0.002, TrailingMarginPct: 0.005,
	FeeRatePct: 0.0005, GSTRate: 0.18, LotSize: 100, LotsPerUnit: 1000,
}

func sampleRows() []model.TradeRow {
	t0 := time.Date(2025, 5, 1, 4, 30, 0, 0, time.UTC)
	return []model.TradeRow{
		{
			TradeNo: 1, RunID: "run-a", Direction: model.Long, EntryPrice: 100, EntryTime: t0,
			Closed: true, ExitPrice: 102, ExitTime: t0.Add(8 * time.Second), ExitReason: model.ExitTakeProfit,
			GrossPnL: 0.2, Fee: 0.011918, NetProfit: 0.188082, CumulativeProfit: 0.188082, Params: params,
		},
		{
			TradeNo: 2, RunID: "run-a", Direction: model.Short, EntryPrice: 101.5,
			EntryTime: t0.Add(time.Minute), CumulativeProfit: 0, Params: params,
		},
	}
}

func TestExportLedger_RoundTrip(t *testing.T) {
	w := openTemp(t)
	ctx := context.Background()

	rows := sampleRows()
	require.NoError(t, w.ExportLedger(ctx, rows))

	got, err := w.ReadTrades(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestExportLedger_UpsertsByTradeNo(t *testing.T) {
	w := openTemp(t)
	ctx := context.Background()

	rows := sampleRows()
	require.NoError(t, w.ExportLedger(ctx, rows))

	rows[1].Closed = true
	rows[1].ExitPrice = 99.4
	rows[1].ExitTime = rows[1].EntryTime.Add(16 * time.Second)
	rows[1].ExitReason = model.ExitTakeProfit
	rows[1].NetProfit = 0.2
	rows[1].CumulativeProfit = 0.388082
	require.NoError(t, w.ExportLedger(ctx, rows))

	got, err := w.ReadTrades(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].Closed)
	assert.Equal(t, 99.4, got[1].ExitPrice)
	assert.Equal(t, 0.388082, got[1].CumulativeProfit)
}

func TestReadTrades_Limit(t *testing.T) {
	w := openTemp(t)
	ctx := context.Background()
	require.NoError(t, w.ExportLedger(ctx, sampleRows()))

	got, err := w.ReadTrades(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].TradeNo)
}

func TestSnapshots(t *testing.T) {
	w := openTemp(t)
	ctx := context.Background()

	data, err := w.ReadLatestSnapshotJSON(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	for i := 0; i < keepSnapshots+5; i++ {
		require.NoError(t, w.SaveSnapshotJSON(ctx, []byte(fmt.Sprintf(`{"n":%d}`, i))))
	}

	data, err = w.ReadLatestSnapshotJSON(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, keepSnapshots+4), string(data))

	var n int
	require.NoError(t, w.DB().QueryRow(`SELECT COUNT(*) FROM bot_snapshots`).Scan(&n))
	assert.Equal(t, keepSnapshots, n)
	assert.NoError(t, w.Ping(ctx))
}
