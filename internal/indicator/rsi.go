package indicator

import "github.com/nsahay2509/crypto-trade-dashboard/internal/model"

// RSIOf computes RSI on a 0–100 scale over the given window.
//
// Per-step gains and losses are taken from consecutive deltas (the first
// sample contributes a zero step). avgGain and avgLoss are the means of the
// last period steps. With avgLoss = 0 the RSI saturates at 100 if there was
// any gain and is unusable for a flat series. Requires at least period values.
func RSIOf(values []float64, period int) model.Reading {
	if period <= 0 || len(values) < period {
		return model.Unusable
	}

	n := len(values)
	start := n - period
	var gain, loss float64
	for i := start; i < n; i++ {
		if i == 0 {
			continue
		}
		delta := values[i] - values[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return model.Unusable
		}
		return model.Usable(100)
	}
	rs := avgGain / avgLoss
	return model.Usable(100.0 - (100.0 / (1.0 + rs)))
}
