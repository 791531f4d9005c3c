package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/ledger"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func params() model.TradeParams {
	return model.TradeParams{
		TakeProfitPct:      0.02,
		StopLossPct:        0.005,
		TrailingTriggerPct: 0.002,
		TrailingMarginPct:  0.005,
		FeeRatePct:         0.0005,
		GSTRate:            0.18,
		LotSize:            100,
		LotsPerUnit:        1000,
	}
}

func newTracker(p model.TradeParams) (*Tracker, *ledger.Ledger) {
	l := ledger.New()
	return NewTracker(p, l, "run-1", nil), l
}

func tick(i int) time.Time { return t0.Add(time.Duration(i) * 8 * time.Second) }

// ────────────────────────────────────────────────────────────
// Exit priority
// ────────────────────────────────────────────────────────────

func TestStep_TakeProfitBeatsTrailing(t *testing.T) {
	tr, l := newTracker(params())
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	res, err := tr.Step(102.5, tick(1))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)

	assert.True(t, res.TrailingUpdated, "trailing conditions also hold on this tick")
	assert.Equal(t, model.ExitTakeProfit, res.Exit.Reason)
	assert.InDelta(t, 0.25, res.Exit.GrossPnL, 1e-9)
	assert.False(t, tr.IsOpen())

	row, ok := l.Row(1)
	require.True(t, ok)
	assert.True(t, row.Closed)
	assert.Equal(t, model.ExitTakeProfit, row.ExitReason)
	assert.Equal(t, "EXIT LONG: Take-profit hit | Profit: $0.25", res.Exit.Message)
}

func TestStep_TrailingAtEntryFiresBeforeStopLoss(t *testing.T) {
	tr, _ := newTracker(params())
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	// extreme == entry, so trailing level == stop-loss level == 99.5
	res, err := tr.Step(99.4, tick(1))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, model.ExitTrailingStop, res.Exit.Reason)
	assert.Equal(t, "EXIT LONG: Trailing stop hit | Loss: $0.06", res.Exit.Message)
}

func TestStep_StopLossWhenMarginWiderThanStop(t *testing.T) {
	p := params()
	p.TrailingMarginPct = 0.01
	tr, _ := newTracker(p)
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	res, err := tr.Step(99.4, tick(1))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, model.ExitStopLoss, res.Exit.Reason)
	assert.Equal(t, "EXIT LONG: Stop-loss hit | Loss: $0.06", res.Exit.Message)
}

func TestStep_NoExitReportsLivePnL(t *testing.T) {
	tr, _ := newTracker(params())
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	res, err := tr.Step(100.1, tick(1))
	require.NoError(t, err)
	assert.Nil(t, res.Exit)
	assert.False(t, res.TrailingUpdated)
	assert.InDelta(t, 0.01, res.PnL, 1e-9)
	assert.InDelta(t, 0.1, res.PnLPercent, 1e-9)
	assert.InDelta(t, 102, res.Levels.TakeProfit, 1e-9)
	assert.InDelta(t, 99.5, res.Levels.StopLoss, 1e-9)
	assert.True(t, tr.IsOpen())
}

// ────────────────────────────────────────────────────────────
// Trailing ratchet
// ────────────────────────────────────────────────────────────

func TestRatchet_LongMonotonic(t *testing.T) {
	tr, _ := newTracker(params())
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	path := []struct {
		price   float64
		updated bool
		extreme float64
	}{
		{100.1, false, 100},   // below trigger
		{100.3, true, 100.3},  // 0.3% move
		{100.2, false, 100.3}, // pullback never retreats
		{100.5, false, 100.3}, // 0.199% < trigger
		{100.9, true, 100.9},
	}
	prev := 100.0
	for i, step := range path {
		res, err := tr.Step(step.price, tick(i+1))
		require.NoError(t, err)
		require.Nil(t, res.Exit, "tick %d", i)
		assert.Equal(t, step.updated, res.TrailingUpdated, "tick %d", i)
		ext := tr.Position().ExtremePrice
		assert.InDelta(t, step.extreme, ext, 1e-9, "tick %d", i)
		assert.GreaterOrEqual(t, ext, prev)
		prev = ext
	}

	res, err := tr.Step(100.36, tick(10))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, model.ExitTrailingStop, res.Exit.Reason)
	assert.InDelta(t, 100.9*0.995, res.Levels.TrailingStop, 1e-9)
	assert.Equal(t, "EXIT LONG: Trailing stop hit | Profit: $0.04", res.Exit.Message)
}

func TestRatchet_ShortMonotonic(t *testing.T) {
	tr, _ := newTracker(params())
	_, err := tr.Open(model.Short, 100, t0)
	require.NoError(t, err)

	prev := 100.0
	for i, price := range []float64{99.9, 99.7, 99.8, 99.2, 99.3} {
		res, err := tr.Step(price, tick(i+1))
		require.NoError(t, err)
		require.Nil(t, res.Exit, "tick %d", i)
		ext := tr.Position().ExtremePrice
		assert.LessOrEqual(t, ext, prev)
		prev = ext
	}
	assert.InDelta(t, 99.2, prev, 1e-9)
}

func TestRatchet_BlockedWhenCandidateNotBeyondStopLoss(t *testing.T) {
	p := params()
	p.TrailingMarginPct = 0.01
	tr, _ := newTracker(p)
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	// candidate 100.3 * 0.99 = 99.297 is below the 99.5 stop-loss
	res, err := tr.Step(100.3, tick(1))
	require.NoError(t, err)
	assert.False(t, res.TrailingUpdated)
	assert.InDelta(t, 100, tr.Position().ExtremePrice, 1e-12)
}

// ────────────────────────────────────────────────────────────
// State machine
// ────────────────────────────────────────────────────────────

func TestOpen_AtMostOnePosition(t *testing.T) {
	tr, l := newTracker(params())
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	_, err = tr.Open(model.Short, 101, tick(1))
	assert.ErrorIs(t, err, ErrPositionOpen)
	assert.Len(t, l.Rows(), 1)
	assert.Equal(t, model.Long, tr.Position().Direction)
}

func TestStep_FlatIsNoop(t *testing.T) {
	tr, l := newTracker(params())
	res, err := tr.Step(100, t0)
	assert.ErrorIs(t, err, ErrNoPosition)
	assert.Nil(t, res.Exit)
	assert.Empty(t, l.Rows())
}

func TestOpen_FreezesParams(t *testing.T) {
	tr, l := newTracker(params())
	pos, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)
	assert.Equal(t, params(), pos.Params)

	tr.params.TakeProfitPct = 0.5
	res, err := tr.Step(102.5, tick(1))
	require.NoError(t, err)
	require.NotNil(t, res.Exit, "frozen 2% take-profit still applies")

	row, _ := l.Row(1)
	assert.Equal(t, 0.02, row.Params.TakeProfitPct)
	assert.Equal(t, "run-1", row.RunID)
}

func TestShortRoundTrip(t *testing.T) {
	tr, l := newTracker(params())
	_, err := tr.Open(model.Short, 100, t0)
	require.NoError(t, err)

	res, err := tr.Step(97.5, tick(1))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, model.ExitTakeProfit, res.Exit.Reason)
	assert.InDelta(t, 0.25, res.Exit.GrossPnL, 1e-9)
	assert.InDelta(t, res.Exit.GrossPnL-res.Exit.Fee, res.Exit.NetProfit, 1e-12)
	assert.InDelta(t, res.Exit.NetProfit, l.CumulativeProfit(), 1e-12)
}

func TestTradeNumbersIncrement(t *testing.T) {
	tr, l := newTracker(params())
	for i := 0; i < 3; i++ {
		pos, err := tr.Open(model.Long, 100, tick(2*i))
		require.NoError(t, err)
		assert.Equal(t, i+1, pos.TradeNo)
		res, err := tr.Step(103, tick(2*i+1))
		require.NoError(t, err)
		require.NotNil(t, res.Exit)
	}
	rows := l.Rows()
	require.Len(t, rows, 3)
	assert.InDelta(t, rows[0].NetProfit*3, rows[2].CumulativeProfit, 1e-9)
}

func TestRestore(t *testing.T) {
	tr, l := newTracker(params())
	pos := &model.Position{
		TradeNo: 7, Direction: model.Long, EntryPrice: 100, EntryTime: t0,
		ExtremePrice: 100.4, Params: params(),
	}
	require.NoError(t, tr.Restore(pos, 5))
	assert.Equal(t, 8, tr.NextTradeNo())
	assert.True(t, tr.IsOpen())

	_, ok := l.Row(7)
	assert.True(t, ok, "missing ledger row is re-opened")

	res, err := tr.Step(99.85, tick(1))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, model.ExitTrailingStop, res.Exit.Reason)

	assert.NoError(t, tr.Restore(nil, 3))
	assert.Equal(t, 8, tr.NextTradeNo())
}

func TestStep_LedgerCloseFailureKeepsPosition(t *testing.T) {
	tr, l := newTracker(params())
	_, err := tr.Open(model.Long, 100, t0)
	require.NoError(t, err)

	// row settled behind the tracker's back
	_, err = l.Close(1, ledger.Exit{Price: 101, Time: tick(1), Reason: model.ExitStopLoss})
	require.NoError(t, err)

	res, err := tr.Step(102.5, tick(2))
	require.ErrorIs(t, err, ledger.ErrTradeClosed)
	assert.Nil(t, res.Exit, "no exit reported without a settled row")
	assert.True(t, tr.IsOpen())
	assert.Equal(t, 1, tr.Position().TradeNo)
}
