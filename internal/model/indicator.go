package model

import (
	"encoding/json"
	"math"
)

// Reading is an indicator output that is either a usable value or unusable
// (insufficient history, zero division). Unusable readings marshal as null.
type Reading struct {
	Value float64
	Ready bool
}

// Usable wraps v as a ready reading. NaN and Inf are treated as unusable.
func Usable(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}
	}
	return Reading{Value: v, Ready: true}
}

// Unusable is the zero reading.
var Unusable = Reading{}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Ready {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Usable(v)
	return nil
}

// Round returns the reading rounded to places decimals; unusable stays unusable.
func (r Reading) Round(places int) Reading {
	if !r.Ready {
		return r
	}
	p := math.Pow10(places)
	return Reading{Value: math.Round(r.Value*p) / p, Ready: true}
}

// IndicatorSnapshot holds the indicator values computed for one tick.
type IndicatorSnapshot struct {
	EMA        Reading `json:"ema"`
	MACD       Reading `json:"macd"`
	MACDSignal Reading `json:"macd_signal"`
	RSI        Reading `json:"rsi"`
	VWAP       Reading `json:"vwap"`
}
