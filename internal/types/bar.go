package types

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV observation for a symbol. Bars are immutable once handed to a simulator.
type Bar struct {
	Symbol string    `csv:"symbol" yaml:"symbol" json:"symbol"`
	Time   time.Time `csv:"time" yaml:"time" json:"time"`
	Open   float64   `csv:"open" yaml:"open" json:"open"`
	High   float64   `csv:"high" yaml:"high" json:"high"`
	Low    float64   `csv:"low" yaml:"low" json:"low"`
	Close  float64   `csv:"close" yaml:"close" json:"close"`
	Volume float64   `csv:"volume" yaml:"volume" json:"volume"`
}

// IsWarmup reports whether the bar is a warm-up placeholder (NaN close).
// The data layer may emit these at the head of a series.
func (b Bar) IsWarmup() bool {
	return math.IsNaN(b.Close)
}

// Validate checks the OHLCV invariants of a single bar:
// finite values, close > 0, volume >= 0 and low <= {open, close} <= high.
func (b Bar) Validate() error {
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close, "volume": b.Volume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite", name)
		}
	}

	if b.Close <= 0 {
		return fmt.Errorf("close must be positive, got %v", b.Close)
	}

	if b.Volume < 0 {
		return fmt.Errorf("volume must be non-negative, got %v", b.Volume)
	}

	if b.Low > b.High {
		return fmt.Errorf("low %v is above high %v", b.Low, b.High)
	}

	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("open %v is outside [%v, %v]", b.Open, b.Low, b.High)
	}

	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("close %v is outside [%v, %v]", b.Close, b.Low, b.High)
	}

	return nil
}

// Closes extracts the close prices of a series.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	return closes
}

// Times extracts the timestamps of a series.
func Times(bars []Bar) []time.Time {
	times := make([]time.Time, len(bars))
	for i, b := range bars {
		times[i] = b.Time
	}

	return times
}
