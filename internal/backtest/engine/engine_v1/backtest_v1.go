package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/writer"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	initialized   bool
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
	single        *SingleSymbolSimulator
	portfolio     *PortfolioSimulator
	writer        *writer.ResultWriter
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		initialized:   false,
		resultsFolder: "",
		log:           nil,
		datasource:    nil,
		single:        nil,
		portfolio:     nil,
		writer:        nil,
	}
}

// NewBacktestEngineV1WithLogger creates an engine that logs through log instead of
// creating its own production logger on Initialize.
func NewBacktestEngineV1WithLogger(log *logger.Logger) engine.Engine {
	e := NewBacktestEngineV1().(*BacktestEngineV1)
	e.log = log

	return e
}

func (b *BacktestEngineV1) logger() *logger.Logger {
	if b.log == nil {
		return logger.NewNopLogger()
	}

	return b.log
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	cfg := EmptyConfig()
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if b.log == nil {
		log, err := logger.NewLogger()
		if err != nil {
			return err
		}

		b.log = log
	}

	b.config = cfg
	b.single = NewSingleSymbolSimulator(b.log)
	b.portfolio = NewPortfolioSimulator(b.log)
	b.writer = writer.NewResultWriter(b.log)
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", cfg.InitialCapital),
		zap.String("broker", string(cfg.Broker)),
		zap.Float64("commission_rate", cfg.CommissionRate),
		zap.Float64("slippage_rate", cfg.SlippageRate),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.logger().Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

// runOutput is what one simulation branch hands back to Run.
type runOutput struct {
	sim     SimulationOutput
	frames  []types.SignalFrame
	symbols []string
	paired  bool
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, source engine.SignalSource, callbacks engine.LifecycleCallbacks) (types.BacktestResult, error) {
	if err := ctx.Err(); err != nil {
		return types.BacktestResult{}, errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled before start", err)
	}

	if err := b.preRunCheck(source); err != nil {
		return types.BacktestResult{}, err
	}

	info := source.Info()
	if err := version.CheckConstraint(version.Version, info.EngineConstraint); err != nil {
		return types.BacktestResult{}, errors.Wrapf(errors.ErrCodeVersionMismatch, err, "strategy %s cannot run on this engine", info.ID)
	}

	runID := uuid.New().String()

	var (
		out runOutput
		err error
	)

	switch src := source.(type) {
	case engine.SingleSource:
		out, err = b.runSingle(runID, src, callbacks)
	case engine.PairedSource:
		out, err = b.runPaired(runID, src, callbacks)
	default:
		err = errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported signal source %T", source)
	}

	if err != nil {
		b.log.Error("Backtest failed",
			zap.String("run_id", runID),
			zap.String("strategy", info.ID),
			zap.Error(err),
		)

		return types.BacktestResult{}, err
	}

	metrics := CalculateMetrics(out.sim.Equity(), out.sim.Trades, b.config.InitialCapital, MetricsOptions{
		PeriodsPerYear: float64(b.config.PeriodsPerYear),
		PairBySymbol:   out.paired,
	})

	result := types.BacktestResult{
		ID:             runID,
		Timestamp:      time.Now(),
		EngineVersion:  version.Version,
		Strategy:       info,
		Symbols:        out.symbols,
		InitialCapital: b.config.InitialCapital,
		FinalCapital:   out.sim.FinalCapital,
		Metrics:        metrics,
		Trades:         out.sim.Trades,
		EquityCurve:    out.sim.EquityCurve,
		RoundTrips:     BuildRoundTrips(out.sim.Trades),
		Frames:         out.frames,
	}

	resultFolderPath := ""
	if b.resultsFolder != "" {
		resultFolderPath = getResultFolder(b.resultsFolder, b.config, info, out.symbols, runID)
		if err := b.writer.Write(resultFolderPath, result); err != nil {
			return types.BacktestResult{}, err
		}
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.String("strategy", info.ID),
		zap.Strings("symbols", out.symbols),
		zap.Float64("final_capital", result.FinalCapital),
		zap.Float64("total_return_pct", result.TotalReturnPct),
		zap.Int("total_trades", result.TotalTrades),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(runID, result, resultFolderPath)
	}

	return result, nil
}

func (b *BacktestEngineV1) runSingle(runID string, src engine.SingleSource, callbacks engine.LifecycleCallbacks) (runOutput, error) {
	if err := validateSymbols([]string{src.Symbol}, 1); err != nil {
		return runOutput{}, err
	}

	bars, err := b.readBars(src.Symbol)
	if err != nil {
		return runOutput{}, err
	}

	frame, err := src.Strategy.GenerateSignals(bars)
	if err != nil {
		return runOutput{}, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %s failed to generate signals for %s", src.Info().ID, src.Symbol)
	}

	if err := checkFrame(src.Symbol, frame, bars); err != nil {
		return runOutput{}, err
	}

	symbols := []string{src.Symbol}
	if err := b.notifyStart(runID, src.Info(), symbols, len(bars), callbacks); err != nil {
		return runOutput{}, err
	}

	sim, err := b.single.Run(bars, frame.Signals, b.simulationParams(callbacks))
	if err != nil {
		return runOutput{}, err
	}

	return runOutput{sim: sim, frames: []types.SignalFrame{frame}, symbols: symbols, paired: false}, nil
}

func (b *BacktestEngineV1) runPaired(runID string, src engine.PairedSource, callbacks engine.LifecycleCallbacks) (runOutput, error) {
	symbols := src.TradedSymbols()
	if err := validateSymbols(symbols, 2); err != nil {
		return runOutput{}, err
	}

	raw := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		bars, err := b.readBars(symbol)
		if err != nil {
			return runOutput{}, err
		}

		raw[symbol] = bars
	}

	aligned, err := datasource.Align(raw, symbols)
	if err != nil {
		return runOutput{}, err
	}

	first, last := datasource.CommonRange(aligned, symbols)
	b.log.Debug("Aligned series",
		zap.Strings("symbols", symbols),
		zap.Int("rows", len(aligned[symbols[0]])),
		zap.Time("first", first),
		zap.Time("last", last),
	)

	frameMap, err := src.Strategy.GenerateSignals(aligned, symbols)
	if err != nil {
		return runOutput{}, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %s failed to generate signals for %v", src.Info().ID, symbols)
	}

	frames := make([]types.SignalFrame, 0, len(symbols))
	signals := make(map[string][]types.Signal, len(symbols))

	for _, symbol := range symbols {
		frame, ok := frameMap[symbol]
		if !ok {
			return runOutput{}, errors.Newf(errors.ErrCodeInvalidSignal, "strategy %s produced no signals for %s", src.Info().ID, symbol)
		}

		if err := checkFrame(symbol, frame, aligned[symbol]); err != nil {
			return runOutput{}, err
		}

		frames = append(frames, frame)
		signals[symbol] = frame.Signals
	}

	if err := b.notifyStart(runID, src.Info(), symbols, len(aligned[symbols[0]]), callbacks); err != nil {
		return runOutput{}, err
	}

	sim, err := b.portfolio.Run(aligned, signals, symbols, b.simulationParams(callbacks))
	if err != nil {
		return runOutput{}, err
	}

	return runOutput{sim: sim, frames: frames, symbols: symbols, paired: true}, nil
}

func (b *BacktestEngineV1) readBars(symbol string) ([]types.Bar, error) {
	bars, err := b.datasource.ReadBars(symbol, b.config.StartTime, b.config.EndTime)
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeUnknown {
			return nil, err
		}

		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read bars for %s", symbol)
	}

	return bars, nil
}

func (b *BacktestEngineV1) simulationParams(callbacks engine.LifecycleCallbacks) SimulationParams {
	params := b.config.SimulationParams()
	if callbacks.OnProcessData != nil {
		params.Progress = *callbacks.OnProcessData
	}

	return params
}

func (b *BacktestEngineV1) notifyStart(runID string, info types.StrategyInfo, symbols []string, total int, callbacks engine.LifecycleCallbacks) error {
	b.log.Debug("Running strategy",
		zap.String("run_id", runID),
		zap.String("strategy", info.ID),
		zap.Strings("symbols", symbols),
		zap.Int("bars", total),
	)

	if callbacks.OnRunStart == nil {
		return nil
	}

	if err := (*callbacks.OnRunStart)(runID, info, symbols, total); err != nil {
		return errors.Wrap(errors.ErrCodeCallbackFailed, "OnRunStart callback failed", err)
	}

	return nil
}

// checkFrame requires the frame to line up row for row with the bars it was built from.
func checkFrame(symbol string, frame types.SignalFrame, bars []types.Bar) error {
	if err := frame.Validate(); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidSignal, err, "invalid signal frame for %s", symbol)
	}

	if frame.Len() != len(bars) {
		return errors.Newf(errors.ErrCodeMisalignedSeries, "%s has %d bars but the strategy produced %d signals", symbol, len(bars), frame.Len())
	}

	for i := range bars {
		if !frame.Times[i].Equal(bars[i].Time) {
			return errors.Newf(errors.ErrCodeMisalignedSeries, "signal frame for %s is misaligned at index %d", symbol, i)
		}
	}

	return nil
}

func (b *BacktestEngineV1) preRunCheck(source engine.SignalSource) error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestNotInitialized, "engine is not initialized")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	switch src := source.(type) {
	case nil:
		return errors.New(errors.ErrCodeUnsupportedStrategy, "no signal source given")
	case engine.SingleSource:
		if src.Strategy == nil {
			return errors.Newf(errors.ErrCodeStrategyNotFound, "no strategy set for %s", src.Symbol)
		}
	case engine.PairedSource:
		if src.Strategy == nil {
			return errors.Newf(errors.ErrCodeStrategyNotFound, "no strategy set for %v", src.Symbols)
		}
	}

	return nil
}
