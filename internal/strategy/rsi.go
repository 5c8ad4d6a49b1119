package strategy

import (
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const RSIID = "rsi"

type RSIParams struct {
	Period     int     `yaml:"period" json:"period" validate:"gt=0" jsonschema:"title=Period,description=RSI lookback in bars,default=14"`
	Oversold   float64 `yaml:"oversold" json:"oversold" validate:"gt=0,lt=100" jsonschema:"title=Oversold,description=Level the RSI must climb back above to buy,default=30"`
	Overbought float64 `yaml:"overbought" json:"overbought" validate:"gt=0,lt=100" jsonschema:"title=Overbought,description=Level the RSI must fall back below to sell,default=70"`
}

func (p *RSIParams) Validate() error {
	if err := validateTags(RSIID, p); err != nil {
		return err
	}

	if p.Oversold >= p.Overbought {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "oversold %v must be less than overbought %v", p.Oversold, p.Overbought)
	}

	return nil
}

// RSI buys when the RSI leaves the oversold zone and sells when it leaves the
// overbought zone.
type RSI struct {
	params RSIParams
	info   types.StrategyInfo
}

func RSIDefinition() Definition {
	return Definition{
		ID:          RSIID,
		Name:        "RSI",
		Description: "Buy when RSI rises above the oversold level, sell when it falls below the overbought level",
		Kind:        KindSingle,
		DefaultParams: func() Params {
			return &RSIParams{Period: 14, Oversold: 30, Overbought: 70}
		},
		NewSingle: func(params Params, info types.StrategyInfo) engine.SingleSymbolStrategy {
			return &RSI{params: *params.(*RSIParams), info: info}
		},
	}
}

func (s *RSI) Info() types.StrategyInfo {
	return s.info
}

func (s *RSI) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	if err := checkBars(RSIID, bars); err != nil {
		return types.SignalFrame{}, err
	}

	rsi, err := indicator.RSI(types.Closes(bars), s.params.Period)
	if err != nil {
		return types.SignalFrame{}, err
	}

	oversold := indicator.Constant(len(rsi), s.params.Oversold)
	overbought := indicator.Constant(len(rsi), s.params.Overbought)

	frame := types.NewSignalFrame(bars[0].Symbol, types.Times(bars))

	for i := 1; i < frame.Len(); i++ {
		switch {
		case indicator.CrossedAbove(rsi, oversold, i):
			frame.Signals[i] = types.SignalBuy
		case indicator.CrossedBelow(rsi, overbought, i):
			frame.Signals[i] = types.SignalSell
		}
	}

	return frame.WithValues("rsi", rsi), nil
}
