package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func openRow(no int) model.TradeRow {
	return model.TradeRow{TradeNo: no, Direction: model.Long, EntryPrice: 100, EntryTime: t0}
}

func TestLedger_CumulativeProfit(t *testing.T) {
	l := New()

	require.NoError(t, l.Open(openRow(1)))
	r1, err := l.Close(1, Exit{Price: 105, Time: t0.Add(time.Minute), Reason: model.ExitTakeProfit, NetProfit: 5})
	require.NoError(t, err)

	require.NoError(t, l.Open(openRow(2)))
	r2, err := l.Close(2, Exit{Price: 98, Time: t0.Add(2 * time.Minute), Reason: model.ExitStopLoss, NetProfit: -2})
	require.NoError(t, err)

	assert.InDelta(t, 5, r1.CumulativeProfit, 1e-12)
	assert.InDelta(t, 3, r2.CumulativeProfit, 1e-12)
	assert.InDelta(t, 3, l.CumulativeProfit(), 1e-12)

	rows := l.Rows()
	require.Len(t, rows, 2)
	assert.InDelta(t, 5, rows[0].CumulativeProfit, 1e-12)
	assert.InDelta(t, 3, rows[1].CumulativeProfit, 1e-12)
	assert.Len(t, l.Closed(), 2)
}

func TestLedger_OpenRowHasNoExitFields(t *testing.T) {
	l := New()
	row := openRow(1)
	row.ExitPrice = 99
	row.NetProfit = 7
	require.NoError(t, l.Open(row))

	got, ok := l.Row(1)
	require.True(t, ok)
	assert.False(t, got.Closed)
	assert.Zero(t, got.ExitPrice)
	assert.Zero(t, got.NetProfit)
	assert.Zero(t, got.CumulativeProfit)
	assert.Empty(t, l.Closed())
}

func TestLedger_FinalizeOnce(t *testing.T) {
	l := New()
	require.NoError(t, l.Open(openRow(1)))
	_, err := l.Close(1, Exit{NetProfit: 1})
	require.NoError(t, err)

	_, err = l.Close(1, Exit{NetProfit: 100})
	assert.ErrorIs(t, err, ErrTradeClosed)
	assert.InDelta(t, 1, l.CumulativeProfit(), 1e-12)

	row, _ := l.Row(1)
	assert.InDelta(t, 1, row.NetProfit, 1e-12)
}

func TestLedger_Errors(t *testing.T) {
	l := New()
	_, err := l.Close(3, Exit{})
	assert.ErrorIs(t, err, ErrUnknownTrade)

	require.NoError(t, l.Open(openRow(2)))
	assert.ErrorIs(t, l.Open(openRow(2)), ErrOutOfOrder)
	assert.ErrorIs(t, l.Open(openRow(1)), ErrOutOfOrder)
	assert.ErrorIs(t, New().Open(openRow(0)), ErrOutOfOrder)
}

func TestLedger_NextTradeNo(t *testing.T) {
	l := New()
	assert.Equal(t, 1, l.NextTradeNo())
	require.NoError(t, l.Open(openRow(1)))
	assert.Equal(t, 2, l.NextTradeNo())
}

func TestLedger_RowsIsCopy(t *testing.T) {
	l := New()
	require.NoError(t, l.Open(openRow(1)))
	rows := l.Rows()
	rows[0].EntryPrice = 1

	got, _ := l.Row(1)
	assert.Equal(t, 100.0, got.EntryPrice)
}

func TestLedger_Load(t *testing.T) {
	rows := []model.TradeRow{
		{TradeNo: 1, Closed: true, NetProfit: 5, CumulativeProfit: 5},
		{TradeNo: 2, Closed: true, NetProfit: -2, CumulativeProfit: 3},
		{TradeNo: 3},
	}
	l := New()
	require.NoError(t, l.Load(rows))

	assert.InDelta(t, 3, l.CumulativeProfit(), 1e-12)
	assert.Equal(t, 4, l.NextTradeNo())

	row, err := l.Close(3, Exit{NetProfit: 1})
	require.NoError(t, err)
	assert.InDelta(t, 4, row.CumulativeProfit, 1e-12)

	bad := []model.TradeRow{{TradeNo: 2}, {TradeNo: 1}}
	assert.ErrorIs(t, New().Load(bad), ErrOutOfOrder)
}

func TestLedger_Summary(t *testing.T) {
	l := New()
	require.NoError(t, l.Load([]model.TradeRow{
		{TradeNo: 7, Closed: true, NetProfit: 0.24, CumulativeProfit: 1.24},
		{TradeNo: 8, Closed: true, NetProfit: -0.07, CumulativeProfit: 1.17},
		{TradeNo: 9, Closed: true, NetProfit: 0, CumulativeProfit: 1.17},
		{TradeNo: 10},
	}))

	s := l.Summary()
	assert.Equal(t, Summary{Closed: 3, Won: 2, Lost: 1, Open: 1, TotalProfit: 1.17}, s)
	assert.Equal(t, Summary{}, New().Summary())
}

type fakeSink struct {
	calls int
	rows  int
	err   error
}

func (f *fakeSink) ExportLedger(_ context.Context, rows []model.TradeRow) error {
	f.calls++
	f.rows = len(rows)
	return f.err
}

func TestMultiSink_ContinuesPastFailure(t *testing.T) {
	boom := errors.New("disk full")
	bad := &fakeSink{err: boom}
	good := &fakeSink{}

	ms := NewMultiSink(nil, bad, nil, good)
	assert.Equal(t, 2, ms.Len())

	err := ms.ExportLedger(context.Background(), []model.TradeRow{openRow(1)})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
	assert.Equal(t, 1, good.rows)
}
