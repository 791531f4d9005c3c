package indicator

import "github.com/nsahay2509/crypto-trade-dashboard/internal/model"

// EMAOf computes the EMA of values from scratch: the first period values seed
// a simple average, then every later value is smoothed in order with
// k = 2/(period+1). Unusable when fewer than period values are given.
func EMAOf(values []float64, period int) model.Reading {
	if period <= 0 || len(values) < period {
		return model.Unusable
	}
	k := 2.0 / float64(period+1)

	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	ema := sum / float64(period)

	for _, v := range values[period:] {
		ema = (v * k) + (ema * (1 - k))
	}
	return model.Usable(ema)
}

// EMA is the incremental form of EMAOf. Fed the same sequence, it yields the
// same value as EMAOf over that sequence.
// O(1) per update — no window storage needed.
type EMA struct {
	period     int
	multiplier float64
	current    float64
	count      int
	sum        float64
}

// NewEMA creates a new EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return "EMA" }

// Update feeds the next value.
func (e *EMA) Update(price float64) {
	e.count++

	if e.count <= e.period {
		// Accumulate for initial SMA seed
		e.sum += price
		if e.count == e.period {
			e.current = e.sum / float64(e.period)
		}
		return
	}

	e.current = (price * e.multiplier) + (e.current * (1 - e.multiplier))
}

// Reading returns the current value, unusable until period values were fed.
func (e *EMA) Reading() model.Reading {
	if e.count < e.period {
		return model.Unusable
	}
	return model.Usable(e.current)
}

// Reset clears the EMA state for reuse.
func (e *EMA) Reset() {
	e.current = 0
	e.count = 0
	e.sum = 0
}
