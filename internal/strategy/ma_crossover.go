package strategy

import (
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const MACrossoverID = "ma_crossover"

type MACrossoverParams struct {
	FastPeriod int `yaml:"fast_period" json:"fast_period" validate:"gt=0" jsonschema:"title=Fast Period,description=Window of the fast moving average,default=20"`
	SlowPeriod int `yaml:"slow_period" json:"slow_period" validate:"gt=0" jsonschema:"title=Slow Period,description=Window of the slow moving average,default=50"`
}

func (p *MACrossoverParams) Validate() error {
	if err := validateTags(MACrossoverID, p); err != nil {
		return err
	}

	if p.FastPeriod >= p.SlowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fast_period %d must be less than slow_period %d", p.FastPeriod, p.SlowPeriod)
	}

	return nil
}

// MACrossover buys when the fast SMA crosses above the slow SMA and sells on the
// opposite cross.
type MACrossover struct {
	params MACrossoverParams
	info   types.StrategyInfo
}

func MACrossoverDefinition() Definition {
	return Definition{
		ID:          MACrossoverID,
		Name:        "Moving Average Crossover",
		Description: "Buy when the fast SMA crosses above the slow SMA, sell when it crosses below",
		Kind:        KindSingle,
		DefaultParams: func() Params {
			return &MACrossoverParams{FastPeriod: 20, SlowPeriod: 50}
		},
		NewSingle: func(params Params, info types.StrategyInfo) engine.SingleSymbolStrategy {
			return &MACrossover{params: *params.(*MACrossoverParams), info: info}
		},
	}
}

func (s *MACrossover) Info() types.StrategyInfo {
	return s.info
}

func (s *MACrossover) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	if err := checkBars(MACrossoverID, bars); err != nil {
		return types.SignalFrame{}, err
	}

	closes := types.Closes(bars)

	fast, err := indicator.SMA(closes, s.params.FastPeriod)
	if err != nil {
		return types.SignalFrame{}, err
	}

	slow, err := indicator.SMA(closes, s.params.SlowPeriod)
	if err != nil {
		return types.SignalFrame{}, err
	}

	frame := types.NewSignalFrame(bars[0].Symbol, types.Times(bars))
	frame = crossSignals(frame, fast, slow)

	return frame.WithValues("ma_fast", fast).WithValues("ma_slow", slow), nil
}
