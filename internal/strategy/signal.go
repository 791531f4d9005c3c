// Package strategy provides the entry signal evaluator.
//
// Evaluate maps the current price and indicator snapshot to BUY, SELL or
// HOLD. Each enabled indicator contributes one predicate; BUY requires every
// long predicate, SELL every short predicate. A disabled indicator is omitted
// from the criteria, while an enabled indicator whose reading is unusable
// contributes false.
package strategy

import (
	"sort"
	"strings"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

// Action represents a trading action.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Config selects the indicators that gate entries. RSI thresholds are on the
// 0–100 RSI scale.
type Config struct {
	UseEMA  bool    `json:"use_ema" yaml:"use_ema"`
	UseMACD bool    `json:"use_macd" yaml:"use_macd"`
	UseRSI  bool    `json:"use_rsi" yaml:"use_rsi"`
	UseVWAP bool    `json:"use_vwap" yaml:"use_vwap"`
	RSIHigh float64 `json:"rsi_high" yaml:"rsi_high"`
	RSILow  float64 `json:"rsi_low" yaml:"rsi_low"`

	// AllowUnfiltered lets a config with no enabled indicator produce BUY.
	// When false such a config always yields HOLD.
	AllowUnfiltered bool `json:"allow_unfiltered" yaml:"allow_unfiltered"`
}

// DefaultConfig enables all four indicators with RSI thresholds 60/40.
func DefaultConfig() Config {
	return Config{
		UseEMA:  true,
		UseMACD: true,
		UseRSI:  true,
		UseVWAP: true,
		RSIHigh: 60,
		RSILow:  40,
	}
}

// Enabled reports whether the named indicator gates entries.
func (c *Config) Enabled(name string) bool {
	switch name {
	case model.IndEMA:
		return c.UseEMA
	case model.IndMACD:
		return c.UseMACD
	case model.IndRSI:
		return c.UseRSI
	case model.IndVWAP:
		return c.UseVWAP
	}
	return false
}

// Criteria holds the per-indicator predicate results of one branch.
type Criteria map[string]bool

// String renders criteria in stable key order, e.g. "EMA=true MACD=false".
func (c Criteria) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		if c[k] {
			b.WriteString("=true")
		} else {
			b.WriteString("=false")
		}
	}
	return b.String()
}

func (c Criteria) all() bool {
	for _, ok := range c {
		if !ok {
			return false
		}
	}
	return true
}

// Evaluate returns the entry signal and the criteria of the deciding branch
// (the long branch on HOLD).
func Evaluate(price float64, ind model.IndicatorSnapshot, cfg *Config) (Action, Criteria) {
	long := criteria(price, ind, cfg, ActionBuy)
	if len(long) == 0 && !cfg.AllowUnfiltered {
		return ActionHold, long
	}
	if long.all() {
		return ActionBuy, long
	}

	short := criteria(price, ind, cfg, ActionSell)
	if short.all() {
		return ActionSell, short
	}
	return ActionHold, long
}

func criteria(price float64, ind model.IndicatorSnapshot, cfg *Config, side Action) Criteria {
	c := make(Criteria, 4)
	for _, name := range model.IndicatorNames {
		if !cfg.Enabled(name) {
			continue
		}
		c[name] = IndicatorSignal(name, price, ind, cfg) == side
	}
	return c
}

// IndicatorSignal returns the single-indicator view used by both the
// evaluator and the dashboard: BUY when the long predicate holds, SELL when
// the short predicate holds, HOLD otherwise or when the reading is unusable.
// The enable flag is not consulted.
func IndicatorSignal(name string, price float64, ind model.IndicatorSnapshot, cfg *Config) Action {
	switch name {
	case model.IndEMA:
		return compare(price, ind.EMA)
	case model.IndVWAP:
		return compare(price, ind.VWAP)
	case model.IndMACD:
		if !ind.MACD.Ready || !ind.MACDSignal.Ready {
			return ActionHold
		}
		return compare(ind.MACD.Value, ind.MACDSignal)
	case model.IndRSI:
		if !ind.RSI.Ready {
			return ActionHold
		}
		switch {
		case ind.RSI.Value > cfg.RSIHigh:
			return ActionBuy
		case ind.RSI.Value < cfg.RSILow:
			return ActionSell
		}
	}
	return ActionHold
}

func compare(x float64, ref model.Reading) Action {
	if !ref.Ready {
		return ActionHold
	}
	switch {
	case x > ref.Value:
		return ActionBuy
	case x < ref.Value:
		return ActionSell
	}
	return ActionHold
}
