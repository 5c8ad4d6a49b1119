package strategy

import (
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const MultiIndicatorID = "multi_indicator"

type MultiIndicatorParams struct {
	RSIPeriod     int     `yaml:"rsi_period" json:"rsi_period" validate:"gt=0" jsonschema:"title=RSI Period,description=RSI lookback in bars,default=14"`
	RSIOversold   float64 `yaml:"rsi_oversold" json:"rsi_oversold" validate:"gt=0,lt=100" jsonschema:"title=RSI Oversold,description=A buy requires the RSI below this level,default=30"`
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsi_overbought" validate:"gt=0,lt=100" jsonschema:"title=RSI Overbought,description=An RSI above this level sells,default=70"`
	MACDFast      int     `yaml:"macd_fast" json:"macd_fast" validate:"gt=0" jsonschema:"title=MACD Fast,description=Span of the fast EMA,default=12"`
	MACDSlow      int     `yaml:"macd_slow" json:"macd_slow" validate:"gt=0" jsonschema:"title=MACD Slow,description=Span of the slow EMA,default=26"`
	MACDSignal    int     `yaml:"macd_signal" json:"macd_signal" validate:"gt=0" jsonschema:"title=MACD Signal,description=Span of the signal line EMA,default=9"`
	VolumePeriod  int     `yaml:"volume_period" json:"volume_period" validate:"gt=0" jsonschema:"title=Volume Period,description=Window of the volume moving average,default=20"`
}

func (p *MultiIndicatorParams) Validate() error {
	if err := validateTags(MultiIndicatorID, p); err != nil {
		return err
	}

	if p.MACDFast >= p.MACDSlow {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "macd_fast %d must be less than macd_slow %d", p.MACDFast, p.MACDSlow)
	}

	if p.RSIOversold >= p.RSIOverbought {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "rsi_oversold %v must be less than rsi_overbought %v", p.RSIOversold, p.RSIOverbought)
	}

	return nil
}

// MultiIndicator buys only when three conditions agree on the same bar: the RSI is
// oversold, the MACD line crosses above its signal line and volume is above its
// moving average. It sells when the RSI is overbought or the MACD crosses below.
type MultiIndicator struct {
	params MultiIndicatorParams
	info   types.StrategyInfo
}

func MultiIndicatorDefinition() Definition {
	return Definition{
		ID:          MultiIndicatorID,
		Name:        "Multi-Indicator",
		Description: "Buy on oversold RSI with a bullish MACD crossing and above-average volume, sell on overbought RSI or a bearish MACD crossing",
		Kind:        KindSingle,
		DefaultParams: func() Params {
			return &MultiIndicatorParams{
				RSIPeriod:     14,
				RSIOversold:   30,
				RSIOverbought: 70,
				MACDFast:      12,
				MACDSlow:      26,
				MACDSignal:    9,
				VolumePeriod:  20,
			}
		},
		NewSingle: func(params Params, info types.StrategyInfo) engine.SingleSymbolStrategy {
			return &MultiIndicator{params: *params.(*MultiIndicatorParams), info: info}
		},
	}
}

func (s *MultiIndicator) Info() types.StrategyInfo {
	return s.info
}

func (s *MultiIndicator) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	if err := checkBars(MultiIndicatorID, bars); err != nil {
		return types.SignalFrame{}, err
	}

	closes := types.Closes(bars)

	rsi, err := indicator.RSI(closes, s.params.RSIPeriod)
	if err != nil {
		return types.SignalFrame{}, err
	}

	macd, err := indicator.MACD(closes, s.params.MACDFast, s.params.MACDSlow, s.params.MACDSignal)
	if err != nil {
		return types.SignalFrame{}, err
	}

	volume := make([]float64, len(bars))
	for i, bar := range bars {
		volume[i] = bar.Volume
	}

	volumeMA, err := indicator.SMA(volume, s.params.VolumePeriod)
	if err != nil {
		return types.SignalFrame{}, err
	}

	frame := types.NewSignalFrame(bars[0].Symbol, types.Times(bars))

	for i := 1; i < frame.Len(); i++ {
		switch {
		case rsi[i] > s.params.RSIOverbought, indicator.CrossedBelow(macd.MACD, macd.Signal, i):
			frame.Signals[i] = types.SignalSell
		case rsi[i] < s.params.RSIOversold &&
			indicator.CrossedAbove(macd.MACD, macd.Signal, i) &&
			volume[i] > volumeMA[i]:
			frame.Signals[i] = types.SignalBuy
		}
	}

	return frame.
		WithValues("rsi", rsi).
		WithValues("macd", macd.MACD).
		WithValues("macd_signal", macd.Signal).
		WithValues("volume_ma", volumeMA), nil
}
