package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

func bullish() model.IndicatorSnapshot {
	return model.IndicatorSnapshot{
		EMA:        model.Usable(100),
		MACD:       model.Usable(1.0),
		MACDSignal: model.Usable(0.5),
		RSI:        model.Usable(65),
		VWAP:       model.Usable(102),
	}
}

func bearish() model.IndicatorSnapshot {
	return model.IndicatorSnapshot{
		EMA:        model.Usable(110),
		MACD:       model.Usable(-1.0),
		MACDSignal: model.Usable(0.5),
		RSI:        model.Usable(30),
		VWAP:       model.Usable(108),
	}
}

func TestEvaluate_AllEnabledBuy(t *testing.T) {
	cfg := DefaultConfig()
	action, crit := Evaluate(105, bullish(), &cfg)

	assert.Equal(t, ActionBuy, action)
	assert.Equal(t, Criteria{"EMA": true, "MACD": true, "RSI": true, "VWAP": true}, crit)
}

func TestEvaluate_AllEnabledSell(t *testing.T) {
	cfg := DefaultConfig()
	action, crit := Evaluate(105, bearish(), &cfg)

	assert.Equal(t, ActionSell, action)
	assert.Equal(t, Criteria{"EMA": true, "MACD": true, "RSI": true, "VWAP": true}, crit)
}

func TestEvaluate_MixedHoldReturnsLongCriteria(t *testing.T) {
	cfg := DefaultConfig()
	ind := bullish()
	ind.RSI = model.Usable(50) // neutral band

	action, crit := Evaluate(105, ind, &cfg)

	assert.Equal(t, ActionHold, action)
	assert.Equal(t, Criteria{"EMA": true, "MACD": true, "RSI": false, "VWAP": true}, crit)
}

func TestEvaluate_DisabledIndicatorOmitted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseRSI = false
	ind := bullish()
	ind.RSI = model.Unusable

	action, crit := Evaluate(105, ind, &cfg)

	assert.Equal(t, ActionBuy, action)
	assert.NotContains(t, crit, "RSI")
	assert.Len(t, crit, 3)
}

func TestEvaluate_EnabledButUnusableBlocksBothSides(t *testing.T) {
	cfg := DefaultConfig()

	ind := bullish()
	ind.VWAP = model.Unusable
	action, crit := Evaluate(105, ind, &cfg)
	assert.Equal(t, ActionHold, action)
	assert.False(t, crit["VWAP"])
	assert.Contains(t, crit, "VWAP")

	ind = bearish()
	ind.MACDSignal = model.Unusable
	action, _ = Evaluate(105, ind, &cfg)
	assert.Equal(t, ActionHold, action)
}

func TestEvaluate_NoEnabledIndicators(t *testing.T) {
	cfg := Config{RSIHigh: 60, RSILow: 40}

	action, crit := Evaluate(105, model.IndicatorSnapshot{}, &cfg)
	assert.Equal(t, ActionHold, action)
	assert.Empty(t, crit)

	cfg.AllowUnfiltered = true
	action, _ = Evaluate(105, model.IndicatorSnapshot{}, &cfg)
	assert.Equal(t, ActionBuy, action)
}

func TestEvaluate_RSIThresholdsAreStrict(t *testing.T) {
	cfg := Config{UseRSI: true, RSIHigh: 60, RSILow: 40}

	action, _ := Evaluate(1, model.IndicatorSnapshot{RSI: model.Usable(60)}, &cfg)
	assert.Equal(t, ActionHold, action)

	action, _ = Evaluate(1, model.IndicatorSnapshot{RSI: model.Usable(60.01)}, &cfg)
	assert.Equal(t, ActionBuy, action)

	action, _ = Evaluate(1, model.IndicatorSnapshot{RSI: model.Usable(39.99)}, &cfg)
	assert.Equal(t, ActionSell, action)
}

func TestIndicatorSignal_IgnoresEnableFlag(t *testing.T) {
	cfg := Config{RSIHigh: 60, RSILow: 40}
	ind := bullish()

	for _, name := range model.IndicatorNames {
		assert.Equal(t, ActionBuy, IndicatorSignal(name, 105, ind, &cfg), name)
	}
	assert.Equal(t, ActionHold, IndicatorSignal(model.IndEMA, 100, ind, &cfg), "price equal to EMA")
	assert.Equal(t, ActionHold, IndicatorSignal(model.IndEMA, 105, model.IndicatorSnapshot{}, &cfg))
}

func TestCriteria_String(t *testing.T) {
	c := Criteria{"VWAP": false, "EMA": true}
	assert.Equal(t, "EMA=true VWAP=false", c.String())
}
