package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) sampleResult() BacktestResult {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return BacktestResult{
		ID:             "run-1",
		Timestamp:      t0,
		EngineVersion:  "v1.4.0",
		Strategy:       StrategyInfo{ID: "ma_crossover", Name: "MA Crossover"},
		Symbols:        []string{"AAPL"},
		InitialCapital: 1000,
		FinalCapital:   1100,
		Metrics: Metrics{
			TotalReturnPct: 10,
			SharpeRatio:    1.5,
			MaxDrawdownPct: -2.5,
			TotalTrades:    2,
			WinRatePct:     100,
		},
		Trades: []Trade{
			{Symbol: "AAPL", Type: TradeTypeBuy, Time: t0, Price: 100, Shares: 10, CapitalAfter: 0},
			{Symbol: "AAPL", Type: TradeTypeSell, Time: t0.Add(24 * time.Hour), Price: 110, Shares: 10, CapitalAfter: 1100},
		},
		EquityCurve: []EquityPoint{{Time: t0, Equity: 1000}, {Time: t0.Add(24 * time.Hour), Equity: 1100}},
	}
}

func (suite *StatisticsTestSuite) TestWriteAndReadBacktestResults() {
	filePath := filepath.Join(suite.tempDir, "stats.yaml")
	err := WriteBacktestResults(filePath, []BacktestResult{suite.sampleResult()})
	suite.Require().NoError(err)

	raw, err := os.ReadFile(filePath)
	suite.Require().NoError(err)

	// metrics are inlined and the trade log is not part of the summary file
	var generic []map[string]any
	suite.Require().NoError(yaml.Unmarshal(raw, &generic))
	suite.Require().Len(generic, 1)
	suite.Contains(generic[0], "sharpe_ratio")
	suite.NotContains(generic[0], "trades")

	results, err := ReadBacktestResults(filePath)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal("run-1", results[0].ID)
	suite.Equal(10.0, results[0].TotalReturnPct)
	suite.Equal(-2.5, results[0].MaxDrawdownPct)
	suite.Equal(2, results[0].TotalTrades)
	suite.Empty(results[0].Trades)
}

func (suite *StatisticsTestSuite) TestWriteBacktestResultsInvalidPath() {
	err := WriteBacktestResults(filepath.Join(suite.tempDir, "missing", "stats.yaml"), nil)
	suite.Error(err)
}

func (suite *StatisticsTestSuite) TestReadBacktestResultsMissingFile() {
	_, err := ReadBacktestResults(filepath.Join(suite.tempDir, "nope.yaml"))
	suite.Error(err)
}

func (suite *StatisticsTestSuite) TestReadOnlyAccessorsReturnCopies() {
	result := suite.sampleResult()

	log := result.TradeLog()
	log[0].Price = 999
	suite.Equal(100.0, result.Trades[0].Price)

	equity := result.Equity()
	equity[0].Equity = 0
	suite.Equal(1000.0, result.EquityCurve[0].Equity)
}

func (suite *StatisticsTestSuite) TestTradesFor() {
	result := suite.sampleResult()
	result.Trades = append(result.Trades, Trade{Symbol: "MSFT", Type: TradeTypeShort})

	suite.Len(result.TradesFor("AAPL"), 2)
	suite.Len(result.TradesFor("MSFT"), 1)
	suite.Empty(result.TradesFor("GOOG"))
}
