// Package indicator provides the rolling technical indicators that drive
// entry decisions: EMA, MACD with its signal line, RSI and VWAP.
//
// Every calculator returns a model.Reading. A reading that is not Ready means
// "not usable this tick" (insufficient history, zero division) and is never
// an error. Calculators that need history beyond the price window (MACD
// signal, VWAP) own their bounded windows as fields of an Engine instance.
package indicator

import "fmt"

// Config sizes the engine's windows and indicator periods.
type Config struct {
	PriceWindow int `json:"price_window" yaml:"price_window"` // retained price samples; must cover MACDSlow
	EMAPeriod   int `json:"ema_period" yaml:"ema_period"`
	MACDFast    int `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow    int `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal  int `json:"macd_signal" yaml:"macd_signal"`
	RSIPeriod   int `json:"rsi_period" yaml:"rsi_period"`
	VWAPWindow  int `json:"vwap_window" yaml:"vwap_window"`
}

// DefaultConfig returns the standard periods: EMA 20, MACD 12/26/9, RSI 14,
// VWAP over the last 20 traded ticks, and a 26-sample price window.
func DefaultConfig() Config {
	return Config{
		PriceWindow: 26,
		EMAPeriod:   20,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		RSIPeriod:   14,
		VWAPWindow:  20,
	}
}

// Validate checks periods are positive and the price window is large enough
// for every price-based indicator.
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"price window": c.PriceWindow,
		"EMA period":   c.EMAPeriod,
		"MACD fast":    c.MACDFast,
		"MACD slow":    c.MACDSlow,
		"MACD signal":  c.MACDSignal,
		"RSI period":   c.RSIPeriod,
		"VWAP window":  c.VWAPWindow,
	} {
		if v <= 0 {
			return fmt.Errorf("invalid %s=%d: must be positive", name, v)
		}
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("MACD fast period %d must be below slow period %d", c.MACDFast, c.MACDSlow)
	}
	for name, p := range map[string]int{"MACD slow": c.MACDSlow, "EMA": c.EMAPeriod, "RSI": c.RSIPeriod} {
		if c.PriceWindow < p {
			return fmt.Errorf("price window %d shorter than %s period %d", c.PriceWindow, name, p)
		}
	}
	return nil
}
