package indicator

import (
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/ringbuf"
)

// MACD computes EMA(fast) − EMA(slow) over the price window and keeps its own
// bounded history of MACD values, capped at the signal period, from which the
// signal line EMA(signal) is derived.
type MACD struct {
	fast, slow, signal int
	history            *ringbuf.Window[float64]
}

// NewMACD creates a MACD calculator; the standard periods are 12, 26, 9.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:    fast,
		slow:    slow,
		signal:  signal,
		history: ringbuf.New[float64](signal),
	}
}

// Update computes MACD for the current price window and, when usable, appends
// it to the signal history. Both readings are unusable until the window holds
// slow samples; the signal line needs signal MACD values.
func (m *MACD) Update(prices []float64) (macd, signal model.Reading) {
	if len(prices) < m.slow {
		return model.Unusable, model.Unusable
	}
	fast := EMAOf(prices, m.fast)
	slow := EMAOf(prices, m.slow)
	if !fast.Ready || !slow.Ready {
		return model.Unusable, model.Unusable
	}

	macd = model.Usable(fast.Value - slow.Value)
	if !macd.Ready {
		return model.Unusable, model.Unusable
	}
	m.history.Push(macd.Value)
	return macd, EMAOf(m.history.Values(), m.signal)
}

// History returns the retained MACD values, oldest first.
func (m *MACD) History() []float64 { return m.history.Values() }
