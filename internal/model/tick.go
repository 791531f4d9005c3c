package model

import "time"

// PriceSample is a single observation from the ticker feed.
type PriceSample struct {
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	TS     time.Time `json:"ts"` // UTC, second precision
}

// EpochSeconds normalizes a feed timestamp of arbitrary precision
// (seconds, millis, micros, nanos) to epoch seconds by keeping its
// leading 10 digits.
func EpochSeconds(raw int64) int64 {
	if raw < 0 {
		return raw
	}
	for raw >= 10_000_000_000 {
		raw /= 10
	}
	return raw
}
