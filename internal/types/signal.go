package types

import (
	"fmt"
	"time"
)

// Signal is the per-bar trading instruction produced by a signal provider.
type Signal int8

const (
	// SignalSell exits a long, or enters/flips to short in a portfolio run.
	SignalSell Signal = -1
	// SignalHold takes no action.
	SignalHold Signal = 0
	// SignalBuy enters a long, or covers and flips to long in a portfolio run.
	SignalBuy Signal = 1
)

// Valid reports whether s is one of -1, 0, 1.
func (s Signal) Valid() bool {
	return s == SignalSell || s == SignalHold || s == SignalBuy
}

// Opposite returns the mirrored signal (buy <-> sell, hold stays hold).
func (s Signal) Opposite() Signal {
	return -s
}

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	case SignalHold:
		return "hold"
	default:
		return fmt.Sprintf("invalid(%d)", int8(s))
	}
}

// SignalFrame is an immutable, timestamp-keyed set of parallel arrays produced by a
// signal provider for one symbol. Values holds indicator columns (e.g. "ma_fast",
// "z_score") that are kept for charting only; the simulators read Signals alone.
type SignalFrame struct {
	Symbol  string               `yaml:"symbol" json:"symbol"`
	Times   []time.Time          `yaml:"times" json:"times"`
	Signals []Signal             `yaml:"signals" json:"signals"`
	Values  map[string][]float64 `yaml:"values,omitempty" json:"values,omitempty"`
}

// NewSignalFrame creates a frame with all-hold signals for the given timestamps.
func NewSignalFrame(symbol string, times []time.Time) SignalFrame {
	return SignalFrame{
		Symbol:  symbol,
		Times:   append([]time.Time(nil), times...),
		Signals: make([]Signal, len(times)),
		Values:  map[string][]float64{},
	}
}

// Len returns the number of rows in the frame.
func (f SignalFrame) Len() int {
	return len(f.Signals)
}

// WithValues returns a copy of the frame with an extra indicator column.
func (f SignalFrame) WithValues(name string, values []float64) SignalFrame {
	out := f
	out.Values = make(map[string][]float64, len(f.Values)+1)

	for k, v := range f.Values {
		out.Values[k] = v
	}

	out.Values[name] = append([]float64(nil), values...)

	return out
}

// Validate checks that the frame is rectangular and only carries valid signals.
func (f SignalFrame) Validate() error {
	if len(f.Times) != len(f.Signals) {
		return fmt.Errorf("frame %s has %d timestamps but %d signals", f.Symbol, len(f.Times), len(f.Signals))
	}

	for i, s := range f.Signals {
		if !s.Valid() {
			return fmt.Errorf("frame %s has invalid signal %d at index %d", f.Symbol, int8(s), i)
		}
	}

	for name, col := range f.Values {
		if len(col) != len(f.Times) {
			return fmt.Errorf("frame %s column %s has %d rows, expected %d", f.Symbol, name, len(col), len(f.Times))
		}
	}

	return nil
}
