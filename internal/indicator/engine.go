package indicator

import (
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/ringbuf"
)

// Engine owns the rolling state for one instrument: the bounded price window,
// the MACD signal history and the VWAP windows. Its state lives for one run
// and is only reset by constructing a new Engine (or restoring a checkpoint).
// Designed for single-goroutine usage — no locks needed.
type Engine struct {
	cfg    Config
	prices *ringbuf.Window[float64]
	macd   *MACD
	vwap   *VWAP
	last   model.IndicatorSnapshot
}

// NewEngine creates an indicator engine. cfg is assumed valid (see Config.Validate).
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		prices: ringbuf.New[float64](cfg.PriceWindow),
		macd:   NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		vwap:   NewVWAP(cfg.VWAPWindow),
	}
}

// Update appends the sample to the price window and recomputes every
// indicator from the retained history.
func (e *Engine) Update(s model.PriceSample) model.IndicatorSnapshot {
	e.prices.Push(s.Price)
	prices := e.prices.Values()

	snap := model.IndicatorSnapshot{
		EMA:  EMAOf(prices, e.cfg.EMAPeriod),
		RSI:  RSIOf(prices, e.cfg.RSIPeriod),
		VWAP: e.vwap.Update(s.Price, s.Volume),
	}
	snap.MACD, snap.MACDSignal = e.macd.Update(prices)

	e.last = snap
	return snap
}

// Last returns the snapshot computed by the most recent Update.
func (e *Engine) Last() model.IndicatorSnapshot { return e.last }

// Prices returns the retained price window, oldest first.
func (e *Engine) Prices() []float64 { return e.prices.Values() }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }
