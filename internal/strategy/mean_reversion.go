package strategy

import (
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const MeanReversionID = "mean_reversion"

type MeanReversionParams struct {
	Period         int     `yaml:"period" json:"period" validate:"gt=1" jsonschema:"title=Period,description=Window of the rolling mean and standard deviation,default=20"`
	EntryThreshold float64 `yaml:"entry_threshold" json:"entry_threshold" validate:"gt=0" jsonschema:"title=Entry Threshold,description=Absolute z-score that opens a trade,default=2"`
	ExitThreshold  float64 `yaml:"exit_threshold" json:"exit_threshold" validate:"gte=0" jsonschema:"title=Exit Threshold,description=A long is closed when the z-score rises back above -exit_threshold,default=0"`
}

func (p *MeanReversionParams) Validate() error {
	if err := validateTags(MeanReversionID, p); err != nil {
		return err
	}

	if p.ExitThreshold >= p.EntryThreshold {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "exit_threshold %v must be less than entry_threshold %v", p.ExitThreshold, p.EntryThreshold)
	}

	return nil
}

// MeanReversion trades the z-score of the close against its rolling mean. It buys
// when the z-score drops below -entry, sells when it rises above +entry, and also
// sells once a dip reverts above -exit.
type MeanReversion struct {
	params MeanReversionParams
	info   types.StrategyInfo
}

func MeanReversionDefinition() Definition {
	return Definition{
		ID:          MeanReversionID,
		Name:        "Mean Reversion",
		Description: "Buy when the close z-score falls below -entry, sell above +entry or when it reverts above -exit",
		Kind:        KindSingle,
		DefaultParams: func() Params {
			return &MeanReversionParams{Period: 20, EntryThreshold: 2, ExitThreshold: 0}
		},
		NewSingle: func(params Params, info types.StrategyInfo) engine.SingleSymbolStrategy {
			return &MeanReversion{params: *params.(*MeanReversionParams), info: info}
		},
	}
}

func (s *MeanReversion) Info() types.StrategyInfo {
	return s.info
}

func (s *MeanReversion) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	if err := checkBars(MeanReversionID, bars); err != nil {
		return types.SignalFrame{}, err
	}

	closes := types.Closes(bars)

	mean, err := indicator.SMA(closes, s.params.Period)
	if err != nil {
		return types.SignalFrame{}, err
	}

	std, err := indicator.RollingStd(closes, s.params.Period)
	if err != nil {
		return types.SignalFrame{}, err
	}

	z := indicator.ZScore(closes, mean, std)

	n := len(closes)
	upper := indicator.Constant(n, s.params.EntryThreshold)
	lower := indicator.Constant(n, -s.params.EntryThreshold)
	exit := indicator.Constant(n, -s.params.ExitThreshold)

	frame := types.NewSignalFrame(bars[0].Symbol, types.Times(bars))

	for i := 1; i < n; i++ {
		switch {
		case indicator.CrossedAbove(z, upper, i), indicator.CrossedAbove(z, exit, i):
			frame.Signals[i] = types.SignalSell
		case indicator.CrossedBelow(z, lower, i):
			frame.Signals[i] = types.SignalBuy
		}
	}

	return frame.
		WithValues("mean", mean).
		WithValues("std", std).
		WithValues("z_score", z), nil
}
