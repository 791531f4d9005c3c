// Package ledger keeps the trade ledger: one row per trade number, appended
// at entry and finalized exactly once at exit.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

var (
	ErrOutOfOrder   = errors.New("ledger: trade number out of order")
	ErrUnknownTrade = errors.New("ledger: unknown trade")
	ErrTradeClosed  = errors.New("ledger: trade already closed")
)

// Exit carries the settlement written into a row when it closes.
type Exit struct {
	Price     float64
	Time      time.Time
	Reason    model.ExitReason
	GrossPnL  float64
	Fee       float64
	NetProfit float64
}

// Ledger is the in-memory trade ledger. It is authoritative; sinks only
// receive copies of its rows.
type Ledger struct {
	mu         sync.RWMutex
	rows       []model.TradeRow
	index      map[int]int // trade no -> rows index
	cumulative float64
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		rows:  make([]model.TradeRow, 0, 64),
		index: make(map[int]int),
	}
}

// Open appends the entry row of a new trade. Trade numbers must increase.
func (l *Ledger) Open(row model.TradeRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.rows); n > 0 && row.TradeNo <= l.rows[n-1].TradeNo {
		return fmt.Errorf("%w: %d after %d", ErrOutOfOrder, row.TradeNo, l.rows[n-1].TradeNo)
	}
	if row.TradeNo <= 0 {
		return fmt.Errorf("%w: %d", ErrOutOfOrder, row.TradeNo)
	}

	row.Closed = false
	row.ExitPrice, row.ExitTime, row.ExitReason = 0, time.Time{}, ""
	row.GrossPnL, row.Fee, row.NetProfit = 0, 0, 0
	row.CumulativeProfit = 0

	l.index[row.TradeNo] = len(l.rows)
	l.rows = append(l.rows, row)
	return nil
}

// Close finalizes the row for tradeNo. CumulativeProfit is the previous
// finalized total plus this trade's net profit.
func (l *Ledger) Close(tradeNo int, exit Exit) (model.TradeRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[tradeNo]
	if !ok {
		return model.TradeRow{}, fmt.Errorf("%w: %d", ErrUnknownTrade, tradeNo)
	}
	row := &l.rows[i]
	if row.Closed {
		return model.TradeRow{}, fmt.Errorf("%w: %d", ErrTradeClosed, tradeNo)
	}

	l.cumulative += exit.NetProfit

	row.Closed = true
	row.ExitPrice = exit.Price
	row.ExitTime = exit.Time
	row.ExitReason = exit.Reason
	row.GrossPnL = exit.GrossPnL
	row.Fee = exit.Fee
	row.NetProfit = exit.NetProfit
	row.CumulativeProfit = l.cumulative
	return *row, nil
}

// CumulativeProfit is the running sum of all finalized net profits.
func (l *Ledger) CumulativeProfit() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cumulative
}

// NextTradeNo returns the number the next opened trade should use.
func (l *Ledger) NextTradeNo() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.rows) == 0 {
		return 1
	}
	return l.rows[len(l.rows)-1].TradeNo + 1
}

// Row returns the row for tradeNo.
func (l *Ledger) Row(tradeNo int) (model.TradeRow, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[tradeNo]
	if !ok {
		return model.TradeRow{}, false
	}
	return l.rows[i], true
}

// Rows returns a copy of all rows in trade-number order.
func (l *Ledger) Rows() []model.TradeRow {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]model.TradeRow, len(l.rows))
	copy(cp, l.rows)
	return cp
}

// Closed returns the finalized trades in order.
func (l *Ledger) Closed() []model.ClosedTrade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.ClosedTrade, 0, len(l.rows))
	for _, r := range l.rows {
		if r.Closed {
			out = append(out, r.ClosedTrade())
		}
	}
	return out
}

// Summary is the win/loss tally of the finalized trades.
type Summary struct {
	Closed      int
	Won         int
	Lost        int
	Open        int
	TotalProfit float64 // cumulative profit after the newest closed trade
}

// Summary tallies the closed trades. Break-even trades count as won.
func (l *Ledger) Summary() Summary {
	var s Summary
	for _, c := range l.Closed() {
		s.Closed++
		if c.NetProfit >= 0 {
			s.Won++
		} else {
			s.Lost++
		}
		s.TotalProfit = c.CumulativeProfit
	}
	l.mu.RLock()
	s.Open = len(l.rows) - s.Closed
	l.mu.RUnlock()
	return s
}

// Load replaces the ledger contents with previously persisted rows. The
// running total is rebuilt from the net profit of closed rows.
func (l *Ledger) Load(rows []model.TradeRow) error {
	index := make(map[int]int, len(rows))
	var cum float64
	for i, r := range rows {
		if r.TradeNo <= 0 || (i > 0 && r.TradeNo <= rows[i-1].TradeNo) {
			return fmt.Errorf("%w: row %d has trade no %d", ErrOutOfOrder, i, r.TradeNo)
		}
		index[r.TradeNo] = i
		if r.Closed {
			cum += r.NetProfit
		}
	}

	cp := make([]model.TradeRow, len(rows))
	copy(cp, rows)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = cp
	l.index = index
	l.cumulative = cum
	return nil
}
