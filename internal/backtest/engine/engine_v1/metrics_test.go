package engine

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func trade(symbol string, kind types.TradeType, capitalAfter float64) types.Trade {
	return types.Trade{Symbol: symbol, Type: kind, CapitalAfter: capitalAfter}
}

func (suite *MetricsTestSuite) TestTotalReturn() {
	metrics := CalculateMetrics([]float64{1000, 1200, 1500}, nil, 1000, MetricsOptions{})
	suite.InDelta(50.0, metrics.TotalReturnPct, 1e-9)
}

func (suite *MetricsTestSuite) TestSharpeRatio() {
	equity := []float64{100, 110, 99, 108.9}
	// returns 0.1, -0.1, 0.1
	mean := 0.1 / 3
	std := math.Sqrt((2*math.Pow(0.1-mean, 2) + math.Pow(-0.1-mean, 2)) / 2)

	metrics := CalculateMetrics(equity, nil, 100, MetricsOptions{})
	suite.InDelta(math.Sqrt(252)*mean/std, metrics.SharpeRatio, 1e-9)

	metrics = CalculateMetrics(equity, nil, 100, MetricsOptions{PeriodsPerYear: 12})
	suite.InDelta(math.Sqrt(12)*mean/std, metrics.SharpeRatio, 1e-9)
}

func (suite *MetricsTestSuite) TestDegenerateSharpe() {
	tests := []struct {
		name   string
		equity []float64
	}{
		{name: "empty curve", equity: nil},
		{name: "single point", equity: []float64{1000}},
		{name: "single return", equity: []float64{1000, 1100}},
		{name: "constant growth rate", equity: []float64{100, 200, 400, 800}},
		{name: "flat", equity: []float64{100, 100, 100}},
		{name: "wiped out then zero", equity: []float64{100, 0, 0, 0}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			metrics := CalculateMetrics(tc.equity, nil, 100, MetricsOptions{})
			suite.Equal(0.0, metrics.SharpeRatio)
			suite.False(math.IsNaN(metrics.TotalReturnPct))
			suite.False(math.IsNaN(metrics.MaxDrawdownPct))
		})
	}
}

func (suite *MetricsTestSuite) TestMaxDrawdown() {
	tests := []struct {
		name     string
		equity   []float64
		expected float64
	}{
		{name: "non decreasing", equity: []float64{100, 100, 110, 120}, expected: 0},
		{name: "single dip", equity: []float64{100, 80, 120}, expected: -20},
		{name: "deepest of two", equity: []float64{100, 90, 200, 150, 210}, expected: -25},
		{name: "total loss", equity: []float64{100, 0}, expected: -100},
		{name: "empty", equity: nil, expected: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			metrics := CalculateMetrics(tc.equity, nil, 100, MetricsOptions{})
			suite.InDelta(tc.expected, metrics.MaxDrawdownPct, 1e-9)
			suite.LessOrEqual(metrics.MaxDrawdownPct, 0.0)
		})
	}
}

func (suite *MetricsTestSuite) TestWinRate() {
	tests := []struct {
		name     string
		trades   []types.Trade
		opts     MetricsOptions
		expected float64
	}{
		{name: "no trades", trades: nil, expected: 0},
		{name: "single unmatched trade", trades: []types.Trade{trade("A", types.TradeTypeBuy, 0)}, expected: 0},
		{
			name: "one win one loss",
			trades: []types.Trade{
				trade("A", types.TradeTypeBuy, 0), trade("A", types.TradeTypeSell, 1100),
				trade("A", types.TradeTypeBuy, 1100), trade("A", types.TradeTypeSell, 1000),
			},
			expected: 50,
		},
		{
			name: "equal capital is not a win",
			trades: []types.Trade{
				trade("A", types.TradeTypeBuy, 1000), trade("A", types.TradeTypeSell, 1000),
			},
			expected: 0,
		},
		{
			name: "interleaved symbols paired by log position",
			trades: []types.Trade{
				trade("A", types.TradeTypeBuy, 500), trade("B", types.TradeTypeShort, 740),
				trade("A", types.TradeTypeSell, 1340), trade("B", types.TradeTypeCover, 300),
			},
			expected: 50,
		},
		{
			name: "interleaved symbols paired per symbol",
			trades: []types.Trade{
				trade("A", types.TradeTypeBuy, 500), trade("B", types.TradeTypeShort, 740),
				trade("A", types.TradeTypeSell, 1340), trade("B", types.TradeTypeCover, 300),
			},
			opts:     MetricsOptions{PairBySymbol: true},
			expected: 50,
		},
		{
			name: "per symbol pairing differs from log pairing",
			trades: []types.Trade{
				trade("A", types.TradeTypeBuy, 500), trade("B", types.TradeTypeShort, 400),
				trade("A", types.TradeTypeSell, 900), trade("B", types.TradeTypeCover, 1000),
			},
			opts:     MetricsOptions{PairBySymbol: true},
			expected: 100,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			metrics := CalculateMetrics([]float64{1000}, tc.trades, 1000, tc.opts)
			suite.InDelta(tc.expected, metrics.WinRatePct, 1e-9)
			suite.Equal(len(tc.trades), metrics.TotalTrades)
		})
	}
}

func (suite *MetricsTestSuite) TestNonFiniteIsZero() {
	metrics := CalculateMetrics([]float64{math.Inf(1)}, nil, 100, MetricsOptions{})
	suite.Equal(0.0, metrics.TotalReturnPct)

	metrics = CalculateMetrics([]float64{100, 110}, nil, 0, MetricsOptions{})
	suite.Equal(0.0, metrics.TotalReturnPct)
}
