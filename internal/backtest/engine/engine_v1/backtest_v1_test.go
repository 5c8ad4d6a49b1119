package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	engine_types "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/writer"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// scriptedStrategy replays a fixed signal sequence.
type scriptedStrategy struct {
	info    types.StrategyInfo
	signals []types.Signal
	err     error
}

func (s *scriptedStrategy) Info() types.StrategyInfo { return s.info }

func (s *scriptedStrategy) GenerateSignals(bars []types.Bar) (types.SignalFrame, error) {
	if s.err != nil {
		return types.SignalFrame{}, s.err
	}

	frame := types.NewSignalFrame(bars[0].Symbol, types.Times(bars))
	copy(frame.Signals, s.signals)

	return frame, nil
}

// scriptedPairStrategy replays fixed signal sequences per symbol.
type scriptedPairStrategy struct {
	info    types.StrategyInfo
	signals map[string][]types.Signal
}

func (s *scriptedPairStrategy) Info() types.StrategyInfo { return s.info }

func (s *scriptedPairStrategy) GenerateSignals(bars map[string][]types.Bar, symbols []string) (map[string]types.SignalFrame, error) {
	frames := make(map[string]types.SignalFrame, len(symbols))

	for _, symbol := range symbols {
		if _, ok := s.signals[symbol]; !ok {
			continue
		}

		frame := types.NewSignalFrame(symbol, types.Times(bars[symbol]))
		copy(frame.Signals, s.signals[symbol])
		frames[symbol] = frame
	}

	return frames, nil
}

const zeroCostConfig = `
initial_capital: 1000
commission_rate: 0
slippage_rate: 0
`

func newTestEngine(t *testing.T, config string, ds datasource.DataSource) *BacktestEngineV1 {
	t.Helper()

	e := NewBacktestEngineV1WithLogger(logger.NewNopLogger()).(*BacktestEngineV1)
	require.NoError(t, e.Initialize(config))
	require.NoError(t, e.SetDataSource(ds))

	return e
}

func TestBacktestEngineV1_Run(t *testing.T) {
	t.Run("Single symbol run through the mocked datasource", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().
			ReadBars("AAA", gomock.Any(), gomock.Any()).
			Return(flatBars("AAA", 100, 105, 110), nil).
			Times(1)

		e := newTestEngine(t, zeroCostConfig, mockDatasource)

		strategy := &scriptedStrategy{
			info:    types.StrategyInfo{ID: "scripted", Name: "Scripted"},
			signals: []types.Signal{types.SignalBuy, types.SignalHold, types.SignalSell},
		}

		result, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: strategy}, engine_types.LifecycleCallbacks{})
		require.NoError(t, err)

		assert.NotEmpty(t, result.ID)
		assert.Equal(t, version.Version, result.EngineVersion)
		assert.Equal(t, []string{"AAA"}, result.Symbols)
		assert.Equal(t, 1000.0, result.InitialCapital)
		assert.Equal(t, 1100.0, result.FinalCapital)
		assert.InDelta(t, 10.0, result.TotalReturnPct, 1e-9)
		assert.Equal(t, 2, result.TotalTrades)
		assert.Equal(t, 100.0, result.WinRatePct)
		assert.Len(t, result.EquityCurve, 3)
		assert.Len(t, result.RoundTrips, 1)
		assert.Len(t, result.Frames, 1)
		assert.Equal(t, result.FinalCapital, result.EquityCurve[len(result.EquityCurve)-1].Equity)
	})

	t.Run("Paired run aligns series before simulating", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		barsA := flatBars("A", 10, 10, 12, 12)
		// B has one extra leading bar that A lacks
		barsB := append([]types.Bar{{Symbol: "B", Time: barsA[0].Time.AddDate(0, 0, -1), Open: 20, High: 20, Low: 20, Close: 20}}, flatBars("B", 20, 20, 18, 18)...)

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().ReadBars("A", gomock.Any(), gomock.Any()).Return(barsA, nil)
		mockDatasource.EXPECT().ReadBars("B", gomock.Any(), gomock.Any()).Return(barsB, nil)

		e := newTestEngine(t, zeroCostConfig, mockDatasource)

		_, signals := flipScenario()
		strategy := &scriptedPairStrategy{info: types.StrategyInfo{ID: "pair"}, signals: signals}

		result, err := e.Run(context.Background(), engine_types.PairedSource{Symbols: []string{"A", "B"}, Strategy: strategy}, engine_types.LifecycleCallbacks{})
		require.NoError(t, err)

		assert.Len(t, result.EquityCurve, 4)
		assert.InDelta(t, 1124.0, result.FinalCapital, 1e-9)
		assert.Equal(t, 8, result.TotalTrades)
		assert.Equal(t, 75.0, result.WinRatePct)
		assert.Len(t, result.Frames, 2)
		assert.Len(t, result.RoundTrips, 4)
	})

	t.Run("Callbacks are invoked in order", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(flatBars("AAA", 100, 101, 102)))

		var events []string

		onStart := engine_types.OnRunStartCallback(func(runID string, strategy types.StrategyInfo, symbols []string, total int) error {
			events = append(events, fmt.Sprintf("start:%s:%d", strategy.ID, total))

			return nil
		})
		onData := engine_types.OnProcessDataCallback(func(current, total int) error {
			events = append(events, fmt.Sprintf("data:%d/%d", current, total))

			return nil
		})
		onEnd := engine_types.OnRunEndCallback(func(runID string, result types.BacktestResult, folder string) {
			assert.Equal(t, result.ID, runID)
			assert.Empty(t, folder)
			events = append(events, "end")
		})

		strategy := &scriptedStrategy{info: types.StrategyInfo{ID: "scripted"}}

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: strategy}, engine_types.LifecycleCallbacks{
			OnRunStart:    &onStart,
			OnProcessData: &onData,
			OnRunEnd:      &onEnd,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"start:scripted:3", "data:1/3", "data:2/3", "data:3/3", "end"}, events)
	})

	t.Run("OnRunStart error aborts the run", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(flatBars("AAA", 100, 101)))

		onStart := engine_types.OnRunStartCallback(func(string, types.StrategyInfo, []string, int) error {
			return fmt.Errorf("no")
		})

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: &scriptedStrategy{}}, engine_types.LifecycleCallbacks{OnRunStart: &onStart})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeCallbackFailed))
	})

	t.Run("Results are written to the run folder", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(flatBars("AAA", 100, 110)))

		resultsDir := t.TempDir()
		require.NoError(t, e.SetResultsFolder(resultsDir))

		var folder string

		onEnd := engine_types.OnRunEndCallback(func(_ string, _ types.BacktestResult, resultFolderPath string) {
			folder = resultFolderPath
		})

		strategy := &scriptedStrategy{
			info:    types.StrategyInfo{ID: "scripted"},
			signals: []types.Signal{types.SignalBuy, types.SignalSell},
		}

		result, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: strategy}, engine_types.LifecycleCallbacks{OnRunEnd: &onEnd})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(resultsDir, "scripted", "AAA", result.ID), folder)

		for _, name := range []string{writer.StatsFileName, writer.TradesFileName, writer.EquityFileName, writer.RoundTripsFileName} {
			_, err := os.Stat(filepath.Join(folder, name))
			assert.NoError(t, err, name)
		}

		stats, err := types.ReadBacktestResults(filepath.Join(folder, writer.StatsFileName))
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, result.ID, stats[0].ID)
		assert.Equal(t, 1100.0, stats[0].FinalCapital)
	})

	t.Run("Configured time range is passed to the datasource", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		bars := flatBars("AAA", 100, 101)

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().
			ReadBars("AAA", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ string, start, end optional.Option[time.Time]) ([]types.Bar, error) {
				require.True(t, start.IsSome())
				assert.True(t, start.Unwrap().Equal(bars[0].Time))
				assert.True(t, end.IsNone())

				return bars, nil
			})

		e := newTestEngine(t, zeroCostConfig+"start_time: "+bars[0].Time.Format(time.RFC3339)+"\n", mockDatasource)

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: &scriptedStrategy{}}, engine_types.LifecycleCallbacks{})
		require.NoError(t, err)
	})
}

func TestBacktestEngineV1_RunErrors(t *testing.T) {
	good := flatBars("AAA", 100, 101, 102)

	t.Run("not initialized", func(t *testing.T) {
		e := NewBacktestEngineV1()
		require.NoError(t, e.SetDataSource(datasource.NewInMemoryDataSource(good)))

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: &scriptedStrategy{}}, engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestNotInitialized))
	})

	t.Run("no datasource", func(t *testing.T) {
		e := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		require.NoError(t, e.Initialize(zeroCostConfig))

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: &scriptedStrategy{}}, engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))
	})

	t.Run("cancelled context", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(good))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := e.Run(ctx, engine_types.SingleSource{Symbol: "AAA", Strategy: &scriptedStrategy{}}, engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestCancelled))
	})

	t.Run("nil strategy", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(good))

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA"}, engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeStrategyNotFound))
	})

	t.Run("engine constraint not satisfied", func(t *testing.T) {
		originalVersion := version.Version
		version.Version = "v1.4.0"
		defer func() { version.Version = originalVersion }()

		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(good))
		strategy := &scriptedStrategy{info: types.StrategyInfo{ID: "future", EngineConstraint: ">= 2.0.0"}}

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: strategy}, engine_types.LifecycleCallbacks{})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeVersionMismatch))
		assert.Contains(t, err.Error(), "future")
	})

	t.Run("engine constraint satisfied", func(t *testing.T) {
		originalVersion := version.Version
		version.Version = "v1.4.0"
		defer func() { version.Version = originalVersion }()

		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(good))
		strategy := &scriptedStrategy{info: types.StrategyInfo{ID: "current", EngineConstraint: ">= 1.0.0, < 2.0.0"}}

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: strategy}, engine_types.LifecycleCallbacks{})
		require.NoError(t, err)
	})

	t.Run("strategy failure", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(good))
		strategy := &scriptedStrategy{err: fmt.Errorf("boom")}

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: strategy}, engine_types.LifecycleCallbacks{})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeStrategyConfigError))
	})

	t.Run("unknown symbol", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(good))

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "ZZZ", Strategy: &scriptedStrategy{}}, engine_types.LifecycleCallbacks{})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeDataNotFound))
	})

	t.Run("datasource failure is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().ReadBars(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("disk gone"))

		e := newTestEngine(t, zeroCostConfig, mockDatasource)

		_, err := e.Run(context.Background(), engine_types.SingleSource{Symbol: "AAA", Strategy: &scriptedStrategy{}}, engine_types.LifecycleCallbacks{})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeQueryFailed))
	})

	t.Run("paired strategy misses a symbol", func(t *testing.T) {
		bars := append(flatBars("A", 1, 2, 3), flatBars("B", 1, 2, 3)...)
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(bars))

		strategy := &scriptedPairStrategy{signals: map[string][]types.Signal{"A": make([]types.Signal, 3)}}

		_, err := e.Run(context.Background(), engine_types.PairedSource{Symbols: []string{"A", "B"}, Strategy: strategy}, engine_types.LifecycleCallbacks{})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidSignal))
	})

	t.Run("paired source with one symbol", func(t *testing.T) {
		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(good))

		_, err := e.Run(context.Background(), engine_types.PairedSource{Symbols: []string{"AAA"}, Strategy: &scriptedPairStrategy{}}, engine_types.LifecycleCallbacks{})
		require.Error(t, err)
		assert.True(t, errors.IsInputError(err))
	})

	t.Run("paired series without overlap", func(t *testing.T) {
		later := flatBars("B", 1, 2, 3)
		for i := range later {
			later[i].Time = later[i].Time.AddDate(1, 0, 0)
		}

		e := newTestEngine(t, zeroCostConfig, datasource.NewInMemoryDataSource(append(flatBars("A", 1, 2, 3), later...)))

		_, err := e.Run(context.Background(), engine_types.PairedSource{Symbols: []string{"A", "B"}, Strategy: &scriptedPairStrategy{}}, engine_types.LifecycleCallbacks{})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeNoOverlappingData))
	})
}

func TestBacktestEngineV1_Initialize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := NewBacktestEngineV1WithLogger(logger.NewNopLogger()).(*BacktestEngineV1)
		require.NoError(t, e.Initialize(""))
		assert.Equal(t, EmptyConfig(), e.config)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		e := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		err := e.Initialize("initial_capital: [")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	})

	t.Run("invalid values", func(t *testing.T) {
		e := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		err := e.Initialize("initial_capital: -5\n")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	})

	t.Run("schema", func(t *testing.T) {
		schema, err := NewBacktestEngineV1().GetConfigSchema()
		require.NoError(t, err)
		assert.Contains(t, schema, "initial_capital")
	})
}
