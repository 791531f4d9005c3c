package indicator

import (
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/ringbuf"
)

// VWAP is the volume-weighted average price over the last N ticks that
// carried volume. Zero-volume ticks are skipped and do not evict.
type VWAP struct {
	products *ringbuf.Window[float64] // price × volume
	volumes  *ringbuf.Window[float64]
}

// NewVWAP creates a VWAP over the last window traded ticks.
func NewVWAP(window int) *VWAP {
	return &VWAP{
		products: ringbuf.New[float64](window),
		volumes:  ringbuf.New[float64](window),
	}
}

// Update adds the tick when volume > 0 and returns the current VWAP,
// unusable while the window carries no volume.
func (v *VWAP) Update(price, volume float64) model.Reading {
	if volume > 0 {
		v.products.Push(price * volume)
		v.volumes.Push(volume)
	}
	return v.Value()
}

// Value returns the VWAP of the current window without adding a tick.
func (v *VWAP) Value() model.Reading {
	var pv, vol float64
	for _, x := range v.products.Values() {
		pv += x
	}
	for _, x := range v.volumes.Values() {
		vol += x
	}
	if vol <= 0 {
		return model.Unusable
	}
	return model.Usable(pv / vol)
}
