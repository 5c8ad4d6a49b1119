package engine

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

type stubSingle struct{}

func (stubSingle) Info() types.StrategyInfo { return types.StrategyInfo{ID: "stub"} }
func (stubSingle) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	return types.NewSignalFrame("A", types.Times(bars)), nil
}

type stubMulti struct{}

func (stubMulti) Info() types.StrategyInfo { return types.StrategyInfo{ID: "stub_pair"} }
func (stubMulti) GenerateSignals(bars map[string][]types.Bar, symbols []string) (map[string]types.SignalFrame, error) {
	return nil, nil
}

func (suite *EngineTestSuite) TestSignalSourceVariants() {
	sources := []SignalSource{
		SingleSource{Symbol: "A", Strategy: stubSingle{}},
		PairedSource{Symbols: []string{"A", "B"}, Strategy: stubMulti{}},
	}

	kinds := []string{}

	for _, source := range sources {
		switch s := source.(type) {
		case SingleSource:
			kinds = append(kinds, "single")
			suite.Equal([]string{"A"}, s.TradedSymbols())
			suite.Equal("stub", s.Info().ID)
		case PairedSource:
			kinds = append(kinds, "paired")
			suite.Equal([]string{"A", "B"}, s.TradedSymbols())
			suite.Equal("stub_pair", s.Info().ID)
		}
	}

	suite.Equal([]string{"single", "paired"}, kinds)
}

func (suite *EngineTestSuite) TestPairedSourceSymbolsAreCopied() {
	source := PairedSource{Symbols: []string{"A", "B"}, Strategy: stubMulti{}}
	symbols := source.TradedSymbols()
	symbols[0] = "Z"
	suite.Equal("A", source.Symbols[0])
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}
