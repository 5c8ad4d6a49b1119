package strategy

import (
	"math"

	"github.com/moznion/go-optional"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/spread"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const PairTradingID = "pair_trading"

type PairTradingParams struct {
	Window          int     `yaml:"window" json:"window" validate:"gte=5" jsonschema:"title=Window,description=Rolling window of the spread mean and standard deviation,minimum=5,default=20"`
	EntryThreshold  float64 `yaml:"entry_threshold" json:"entry_threshold" validate:"gt=0" jsonschema:"title=Entry Threshold,description=Absolute z-score that opens a spread position,default=2"`
	ExitThreshold   float64 `yaml:"exit_threshold" json:"exit_threshold" validate:"gte=0" jsonschema:"title=Exit Threshold,description=Absolute z-score below which an open spread is closed,default=0.5"`
	HedgeRatio      float64 `yaml:"hedge_ratio" json:"hedge_ratio" validate:"gt=0" jsonschema:"title=Hedge Ratio,description=Units of the second symbol per unit of the first,default=1"`
	UseDynamicHedge bool    `yaml:"use_dynamic_hedge" json:"use_dynamic_hedge" jsonschema:"title=Dynamic Hedge,description=Estimate the hedge ratio by OLS over the last window bars instead of using hedge_ratio,default=false"`
}

func (p *PairTradingParams) Validate() error {
	if err := validateTags(PairTradingID, p); err != nil {
		return err
	}

	if p.ExitThreshold >= p.EntryThreshold {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "exit_threshold %v must be less than entry_threshold %v", p.ExitThreshold, p.EntryThreshold)
	}

	return nil
}

// PairTrading trades the z-score of the hedged spread between two symbols:
// long the spread (buy A, sell B) below -entry, short it above +entry and flatten
// once |z| falls under exit.
type PairTrading struct {
	params PairTradingParams
	info   types.StrategyInfo
}

func PairTradingDefinition() Definition {
	return Definition{
		ID:          PairTradingID,
		Name:        "Pair Trading",
		Description: "Statistical arbitrage on the z-score of the spread between two correlated symbols",
		Kind:        KindMulti,
		Symbols:     2,
		DefaultParams: func() Params {
			return &PairTradingParams{
				Window:         20,
				EntryThreshold: 2.0,
				ExitThreshold:  0.5,
				HedgeRatio:     1.0,
			}
		},
		NewMulti: func(params Params, info types.StrategyInfo) engine.MultiSymbolStrategy {
			return &PairTrading{params: *params.(*PairTradingParams), info: info}
		},
	}
}

func (s *PairTrading) Info() types.StrategyInfo {
	return s.info
}

func (s *PairTrading) GenerateSignals(bars map[string][]types.Bar, symbols []string) (map[string]types.SignalFrame, error) {
	if len(symbols) != 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidSymbols, "pair trading needs exactly 2 symbols, got %d", len(symbols))
	}

	symbolA, symbolB := symbols[0], symbols[1]
	barsA, barsB := bars[symbolA], bars[symbolB]

	if err := checkBars(PairTradingID, barsA); err != nil {
		return nil, err
	}

	if err := checkBars(PairTradingID, barsB); err != nil {
		return nil, err
	}

	if len(barsA) != len(barsB) {
		return nil, errors.Newf(errors.ErrCodeMisalignedSeries, "%s has %d bars but %s has %d", symbolA, len(barsA), symbolB, len(barsB))
	}

	closesA, closesB := types.Closes(barsA), types.Closes(barsB)

	hedge := optional.Some(s.params.HedgeRatio)
	if s.params.UseDynamicHedge {
		hedge = optional.None[float64]()
	}

	series, err := spread.Compute(closesA, closesB, s.params.Window, hedge)
	if err != nil {
		return nil, err
	}

	machine, err := spread.NewStateMachine(s.params.EntryThreshold, s.params.ExitThreshold)
	if err != nil {
		return nil, err
	}

	sigA, sigB, states := machine.Scan(series.ZScore)

	correlation, err := indicator.ReturnCorrelation(closesA, closesB, 0)
	if err != nil {
		correlation = math.NaN()
	}

	n := len(barsA)
	position := make([]float64, n)

	for i, state := range states {
		switch state {
		case types.SpreadStateLong:
			position[i] = 1
		case types.SpreadStateShort:
			position[i] = -1
		}
	}

	withSpread := func(frame types.SignalFrame) types.SignalFrame {
		return frame.
			WithValues("spread", series.Spread).
			WithValues("spread_mean", series.Mean).
			WithValues("spread_std", series.Std).
			WithValues("z_score", series.ZScore).
			WithValues("hedge_ratio", indicator.Constant(n, series.HedgeRatio)).
			WithValues("correlation", indicator.Constant(n, correlation)).
			WithValues("spread_position", position)
	}

	frameA := types.NewSignalFrame(symbolA, types.Times(barsA))
	copy(frameA.Signals, sigA)

	frameB := types.NewSignalFrame(symbolB, types.Times(barsB))
	copy(frameB.Signals, sigB)

	return map[string]types.SignalFrame{
		symbolA: withSpread(frameA),
		symbolB: withSpread(frameB),
	}, nil
}
