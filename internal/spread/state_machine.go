package spread

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// StateMachine turns a z-score stream into paired signals for A and B.
//
//	FLAT  --z < -entry--> LONG_SPREAD   emits (+1, -1)
//	FLAT  --z > +entry--> SHORT_SPREAD  emits (-1, +1)
//	LONG  --|z| < exit--> FLAT          emits (-1, +1)
//	SHORT --|z| < exit--> FLAT          emits (+1, -1)
//
// NaN z-scores never transition. The signals of A and B are always opposite or both zero.
type StateMachine struct {
	EntryThreshold float64
	ExitThreshold  float64
	state          types.SpreadState
}

// NewStateMachine validates the thresholds (entry > exit >= 0) and returns a FLAT machine.
func NewStateMachine(entry, exit float64) (*StateMachine, error) {
	if !(entry > 0) || math.IsInf(entry, 0) {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "entry threshold must be positive, got %v", entry)
	}

	if !(exit >= 0) {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "exit threshold must be non-negative, got %v", exit)
	}

	if exit >= entry {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "exit threshold %v must be less than entry threshold %v", exit, entry)
	}

	return &StateMachine{
		EntryThreshold: entry,
		ExitThreshold:  exit,
		state:          types.SpreadStateFlat,
	}, nil
}

// State returns the current state.
func (m *StateMachine) State() types.SpreadState {
	if m.state == "" {
		return types.SpreadStateFlat
	}

	return m.state
}

// Reset returns the machine to FLAT.
func (m *StateMachine) Reset() {
	m.state = types.SpreadStateFlat
}

// Step consumes one z-score and returns the signals for A and B.
func (m *StateMachine) Step(z float64) (types.Signal, types.Signal) {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return types.SignalHold, types.SignalHold
	}

	switch m.State() {
	case types.SpreadStateFlat:
		if z < -m.EntryThreshold {
			m.state = types.SpreadStateLong

			return types.SignalBuy, types.SignalSell
		}

		if z > m.EntryThreshold {
			m.state = types.SpreadStateShort

			return types.SignalSell, types.SignalBuy
		}
	case types.SpreadStateLong:
		if math.Abs(z) < m.ExitThreshold {
			m.state = types.SpreadStateFlat

			return types.SignalSell, types.SignalBuy
		}
	case types.SpreadStateShort:
		if math.Abs(z) < m.ExitThreshold {
			m.state = types.SpreadStateFlat

			return types.SignalBuy, types.SignalSell
		}
	}

	return types.SignalHold, types.SignalHold
}

// Scan resets the machine and runs it over a whole z-score series, returning the
// signals for A, the signals for B and the state after each row.
func (m *StateMachine) Scan(z []float64) ([]types.Signal, []types.Signal, []types.SpreadState) {
	m.Reset()

	sigA := make([]types.Signal, len(z))
	sigB := make([]types.Signal, len(z))
	states := make([]types.SpreadState, len(z))

	for i, v := range z {
		sigA[i], sigB[i] = m.Step(v)
		states[i] = m.State()
	}

	return sigA, sigB, states
}
