package strategy

import (
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const MACDID = "macd"

type MACDParams struct {
	FastPeriod   int `yaml:"fast_period" json:"fast_period" validate:"gt=0" jsonschema:"title=Fast Period,description=Span of the fast EMA,default=12"`
	SlowPeriod   int `yaml:"slow_period" json:"slow_period" validate:"gt=0" jsonschema:"title=Slow Period,description=Span of the slow EMA,default=26"`
	SignalPeriod int `yaml:"signal_period" json:"signal_period" validate:"gt=0" jsonschema:"title=Signal Period,description=Span of the signal line EMA,default=9"`
}

func (p *MACDParams) Validate() error {
	if err := validateTags(MACDID, p); err != nil {
		return err
	}

	if p.FastPeriod >= p.SlowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fast_period %d must be less than slow_period %d", p.FastPeriod, p.SlowPeriod)
	}

	return nil
}

// MACD trades crossings of the MACD line and its signal line.
type MACD struct {
	params MACDParams
	info   types.StrategyInfo
}

func MACDDefinition() Definition {
	return Definition{
		ID:          MACDID,
		Name:        "MACD",
		Description: "Buy when MACD crosses above its signal line, sell when it crosses below",
		Kind:        KindSingle,
		DefaultParams: func() Params {
			return &MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}
		},
		NewSingle: func(params Params, info types.StrategyInfo) engine.SingleSymbolStrategy {
			return &MACD{params: *params.(*MACDParams), info: info}
		},
	}
}

func (s *MACD) Info() types.StrategyInfo {
	return s.info
}

func (s *MACD) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	if err := checkBars(MACDID, bars); err != nil {
		return types.SignalFrame{}, err
	}

	result, err := indicator.MACD(types.Closes(bars), s.params.FastPeriod, s.params.SlowPeriod, s.params.SignalPeriod)
	if err != nil {
		return types.SignalFrame{}, err
	}

	frame := types.NewSignalFrame(bars[0].Symbol, types.Times(bars))
	frame = crossSignals(frame, result.MACD, result.Signal)

	return frame.
		WithValues("macd", result.MACD).
		WithValues("macd_signal", result.Signal).
		WithValues("macd_histogram", result.Histogram), nil
}
