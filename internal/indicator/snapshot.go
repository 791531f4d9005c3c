package indicator

import "fmt"

// EngineSnapshot holds the full rolling state of an Engine so a restarted
// process can resume with warm indicators.
type EngineSnapshot struct {
	Version      int       `json:"version"` // schema version for forward compat
	Prices       []float64 `json:"prices"`
	MACDHistory  []float64 `json:"macd_history"`
	VWAPProducts []float64 `json:"vwap_products"`
	VWAPVolumes  []float64 `json:"vwap_volumes"`
}

const snapshotVersion = 1

// Snapshot captures the engine's windows.
func (e *Engine) Snapshot() EngineSnapshot {
	return EngineSnapshot{
		Version:      snapshotVersion,
		Prices:       e.prices.Values(),
		MACDHistory:  e.macd.History(),
		VWAPProducts: e.vwap.products.Values(),
		VWAPVolumes:  e.vwap.volumes.Values(),
	}
}

// RestoreEngine rebuilds an Engine from a snapshot. It is tolerant of window
// size changes — each window keeps its newest values up to the configured
// capacity. The last snapshot is left empty until the next Update.
func RestoreEngine(cfg Config, snap EngineSnapshot) (*Engine, error) {
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported engine snapshot version %d", snap.Version)
	}
	if len(snap.VWAPProducts) != len(snap.VWAPVolumes) {
		return nil, fmt.Errorf("vwap windows out of step: %d products, %d volumes",
			len(snap.VWAPProducts), len(snap.VWAPVolumes))
	}

	e := NewEngine(cfg)
	e.prices.Load(snap.Prices)
	e.macd.history.Load(snap.MACDHistory)
	e.vwap.products.Load(snap.VWAPProducts)
	e.vwap.volumes.Load(snap.VWAPVolumes)
	return e, nil
}
