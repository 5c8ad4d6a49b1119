package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

var validate = validator.New()

func validateTags(id string, params any) error {
	if err := validate.Struct(params); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid %s parameters", id)
	}

	return nil
}

func checkBars(id string, bars []types.Bar) error {
	if len(bars) == 0 {
		return errors.Newf(errors.ErrCodeEmptySeries, "%s received an empty bar series", id)
	}

	return nil
}

// crossSignals emits a buy where a crosses above b and a sell where it crosses below.
func crossSignals(frame types.SignalFrame, a, b []float64) types.SignalFrame {
	for i := 1; i < frame.Len(); i++ {
		switch {
		case indicator.CrossedAbove(a, b, i):
			frame.Signals[i] = types.SignalBuy
		case indicator.CrossedBelow(a, b, i):
			frame.Signals[i] = types.SignalSell
		}
	}

	return frame
}
