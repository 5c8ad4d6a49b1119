package strategy

import (
	"math"
	"testing"
	"time"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

var barStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// barsFrom builds daily bars whose open, high, low and close all equal the given closes.
func barsFrom(symbol string, closes ...float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Symbol: symbol,
			Time:   barStart.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}

	return bars
}

func buildSingle(s *suite.Suite, id string, params map[string]any) engine.SingleSymbolStrategy {
	source, err := NewDefaultRegistry().Build(id, params, []string{"SPY"})
	s.Require().NoError(err)

	return source.(engine.SingleSource).Strategy
}

type SingleStrategyTestSuite struct {
	suite.Suite
}

func TestSingleStrategySuite(t *testing.T) {
	suite.Run(t, new(SingleStrategyTestSuite))
}

func (suite *SingleStrategyTestSuite) TestMACrossover() {
	strategy := buildSingle(&suite.Suite, MACrossoverID, map[string]any{"fast_period": 2, "slow_period": 3})

	frame, err := strategy.GenerateSignals(barsFrom("SPY", 10, 10, 10, 13, 13, 7, 7, 7))
	suite.Require().NoError(err)
	suite.NoError(frame.Validate())

	suite.Equal("SPY", frame.Symbol)
	suite.Equal([]types.Signal{0, 0, 0, 1, 0, -1, 0, 0}, frame.Signals)
	suite.InDelta(11.5, frame.Values["ma_fast"][3], 1e-9)
	suite.InDelta(11.0, frame.Values["ma_slow"][3], 1e-9)
	suite.True(math.IsNaN(frame.Values["ma_slow"][1]))
}

func (suite *SingleStrategyTestSuite) TestRSI() {
	strategy := buildSingle(&suite.Suite, RSIID, map[string]any{"period": 2})

	frame, err := strategy.GenerateSignals(barsFrom("SPY", 10, 9, 8, 9, 10, 11, 10, 9))
	suite.Require().NoError(err)
	suite.NoError(frame.Validate())

	suite.Equal([]types.Signal{0, 0, 0, 1, 0, 0, -1, 0}, frame.Signals)

	rsi := frame.Values["rsi"]
	suite.True(math.IsNaN(rsi[0]))
	suite.InDelta(0.0, rsi[1], 1e-9)
	suite.InDelta(0.0, rsi[2], 1e-9)
	suite.InDelta(50.0, rsi[3], 1e-9)
	suite.InDelta(100.0, rsi[4], 1e-9)
}

func (suite *SingleStrategyTestSuite) TestBollingerBands() {
	strategy := buildSingle(&suite.Suite, BollingerBandsID, map[string]any{"period": 3, "std_dev": 1.0})

	frame, err := strategy.GenerateSignals(barsFrom("SPY", 10, 11, 10, 11, 7, 10, 10, 14))
	suite.Require().NoError(err)
	suite.NoError(frame.Validate())

	suite.Equal([]types.Signal{0, 0, 0, 0, 1, 0, 0, -1}, frame.Signals)

	for _, column := range []string{"bb_upper", "bb_middle", "bb_lower", "bb_width"} {
		suite.Len(frame.Values[column], 8, column)
	}

	suite.True(math.IsNaN(frame.Values["bb_width"][0]))
	suite.Greater(frame.Values["bb_width"][4], 0.0)
	suite.InDelta(9.0+1/3.0, frame.Values["bb_middle"][4], 1e-9)
}

func (suite *SingleStrategyTestSuite) TestMeanReversion() {
	strategy := buildSingle(&suite.Suite, MeanReversionID, map[string]any{"period": 3, "entry_threshold": 1.0})

	frame, err := strategy.GenerateSignals(barsFrom("SPY", 10, 11, 10, 11, 10, 6, 10, 11, 10, 14, 10))
	suite.Require().NoError(err)
	suite.NoError(frame.Validate())

	suite.Equal([]types.Signal{0, 0, 0, -1, 0, 1, -1, 0, 0, -1, 0}, frame.Signals)

	z := frame.Values["z_score"]
	suite.True(math.IsNaN(z[1]))
	suite.InDelta(9.0, frame.Values["mean"][5], 1e-9)
	suite.InDelta(math.Sqrt(7), frame.Values["std"][5], 1e-9)
	suite.InDelta(-3/math.Sqrt(7), z[5], 1e-9)

	// row 6 sells on the reversion above -exit while still inside the entry band
	suite.Less(z[6], 1.0)
	suite.Greater(z[6], 0.0)
}

func (suite *SingleStrategyTestSuite) TestMeanReversionFlatWindowHasNoZScore() {
	strategy := buildSingle(&suite.Suite, MeanReversionID, map[string]any{"period": 3})

	frame, err := strategy.GenerateSignals(barsFrom("SPY", 10, 10, 10, 10, 10))
	suite.Require().NoError(err)

	for i, z := range frame.Values["z_score"] {
		suite.True(math.IsNaN(z), "row %d", i)
		suite.Equal(types.SignalHold, frame.Signals[i], "row %d", i)
	}
}

func (suite *SingleStrategyTestSuite) TestMultiIndicator() {
	closes := []float64{10, 10, 10, 10, 10, 10, 9, 8, 7, 4, 5, 6, 7, 9, 12, 15, 14, 10, 9}
	params := map[string]any{
		"rsi_period":    2,
		"macd_fast":     2,
		"macd_slow":     4,
		"macd_signal":   2,
		"volume_period": 3,
	}

	tests := []struct {
		name     string
		volume   float64
		expected []types.Signal
	}{
		{
			name:     "volume spike confirms the buy",
			volume:   300,
			expected: []types.Signal{0, 0, 0, 0, 0, 0, -1, 0, 0, 0, 1, -1, -1, -1, -1, -1, -1, 0, 0},
		},
		{
			name:     "average volume blocks the buy",
			volume:   100,
			expected: []types.Signal{0, 0, 0, 0, 0, 0, -1, 0, 0, 0, 0, -1, -1, -1, -1, -1, -1, 0, 0},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			bars := barsFrom("SPY", closes...)
			for i := range bars {
				bars[i].Volume = 100
			}

			bars[10].Volume = tc.volume

			frame, err := buildSingle(&suite.Suite, MultiIndicatorID, params).GenerateSignals(bars)
			suite.Require().NoError(err)
			suite.NoError(frame.Validate())

			suite.Equal(tc.expected, frame.Signals)
			suite.InDelta(25.0, frame.Values["rsi"][10], 1e-9)
			suite.Greater(frame.Values["macd"][10], frame.Values["macd_signal"][10])
			suite.Less(frame.Values["macd"][9], frame.Values["macd_signal"][9])

			for _, column := range []string{"rsi", "macd", "macd_signal", "volume_ma"} {
				suite.Len(frame.Values[column], len(bars), column)
			}
		})
	}
}

func (suite *SingleStrategyTestSuite) TestMACDSignalsFollowLineCrossings() {
	bars := mocks.NewDataGenerator(7).Generate(mocks.DefaultConfig())
	strategy := buildSingle(&suite.Suite, MACDID, nil)

	frame, err := strategy.GenerateSignals(bars)
	suite.Require().NoError(err)
	suite.NoError(frame.Validate())

	macd, signal := frame.Values["macd"], frame.Values["macd_signal"]
	suite.Len(frame.Values["macd_histogram"], len(bars))

	trades := 0

	for i, s := range frame.Signals {
		switch {
		case indicator.CrossedAbove(macd, signal, i):
			suite.Equal(types.SignalBuy, s, "row %d", i)
		case indicator.CrossedBelow(macd, signal, i):
			suite.Equal(types.SignalSell, s, "row %d", i)
		default:
			suite.Equal(types.SignalHold, s, "row %d", i)
		}

		if s != types.SignalHold {
			trades++
		}
	}

	suite.Positive(trades)
}

func (suite *SingleStrategyTestSuite) TestWarmupRowsNeverSignal() {
	closes := []float64{math.NaN(), math.NaN(), math.NaN(), 10, 12, 8, 13, 7, 14, 6}
	bars := barsFrom("SPY", closes...)

	for _, id := range []string{MACrossoverID, RSIID, MACDID, BollingerBandsID, MeanReversionID, MultiIndicatorID} {
		suite.Run(id, func() {
			def, err := NewDefaultRegistry().Get(id)
			suite.Require().NoError(err)

			var params map[string]any

			switch id {
			case MACrossoverID:
				params = map[string]any{"fast_period": 1, "slow_period": 2}
			case RSIID, BollingerBandsID, MeanReversionID:
				params = map[string]any{"period": 2}
			case MultiIndicatorID:
				params = map[string]any{"rsi_period": 2, "macd_fast": 1, "macd_slow": 2, "macd_signal": 1, "volume_period": 2}
			case MACDID:
				params = map[string]any{"fast_period": 1, "slow_period": 2, "signal_period": 1}
			}

			merged, err := ResolveParams(def, params)
			suite.Require().NoError(err)

			frame, err := def.NewSingle(merged, types.StrategyInfo{ID: id}).GenerateSignals(bars)
			suite.Require().NoError(err)

			for i := 0; i < 4; i++ {
				suite.Equal(types.SignalHold, frame.Signals[i], "row %d", i)
			}
		})
	}
}

func (suite *SingleStrategyTestSuite) TestEmptyBars() {
	for _, id := range []string{MACrossoverID, RSIID, MACDID, BollingerBandsID, MeanReversionID, MultiIndicatorID} {
		suite.Run(id, func() {
			strategy := buildSingle(&suite.Suite, id, nil)

			_, err := strategy.GenerateSignals(nil)
			suite.True(errors.HasCode(err, errors.ErrCodeEmptySeries))
		})
	}
}
