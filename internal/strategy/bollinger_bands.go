package strategy

import (
	"math"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const BollingerBandsID = "bollinger_bands"

type BollingerBandsParams struct {
	Period int     `yaml:"period" json:"period" validate:"gt=1" jsonschema:"title=Period,description=Window of the middle band SMA,default=20"`
	StdDev float64 `yaml:"std_dev" json:"std_dev" validate:"gt=0" jsonschema:"title=Std Dev,description=Band width in sample standard deviations,default=2"`
}

func (p *BollingerBandsParams) Validate() error {
	return validateTags(BollingerBandsID, p)
}

// BollingerBands buys when the close touches the lower band from above and sells
// when it touches the upper band from below.
type BollingerBands struct {
	params BollingerBandsParams
	info   types.StrategyInfo
}

func BollingerBandsDefinition() Definition {
	return Definition{
		ID:          BollingerBandsID,
		Name:        "Bollinger Bands",
		Description: "Buy when the close touches the lower band, sell when it touches the upper band",
		Kind:        KindSingle,
		DefaultParams: func() Params {
			return &BollingerBandsParams{Period: 20, StdDev: 2}
		},
		NewSingle: func(params Params, info types.StrategyInfo) engine.SingleSymbolStrategy {
			return &BollingerBands{params: *params.(*BollingerBandsParams), info: info}
		},
	}
}

func (s *BollingerBands) Info() types.StrategyInfo {
	return s.info
}

func (s *BollingerBands) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	if err := checkBars(BollingerBandsID, bars); err != nil {
		return types.SignalFrame{}, err
	}

	closes := types.Closes(bars)

	bands, err := indicator.BollingerBands(closes, s.params.Period, s.params.StdDev)
	if err != nil {
		return types.SignalFrame{}, err
	}

	width := make([]float64, len(closes))
	for i := range width {
		width[i] = (bands.Upper[i] - bands.Lower[i]) / bands.Middle[i]
		if math.IsInf(width[i], 0) {
			width[i] = math.NaN()
		}
	}

	frame := types.NewSignalFrame(bars[0].Symbol, types.Times(bars))

	for i := 1; i < frame.Len(); i++ {
		switch {
		case closes[i] <= bands.Lower[i] && closes[i-1] > bands.Lower[i-1]:
			frame.Signals[i] = types.SignalBuy
		case closes[i] >= bands.Upper[i] && closes[i-1] < bands.Upper[i-1]:
			frame.Signals[i] = types.SignalSell
		}
	}

	return frame.
		WithValues("bb_upper", bands.Upper).
		WithValues("bb_middle", bands.Middle).
		WithValues("bb_lower", bands.Lower).
		WithValues("bb_width", width), nil
}
