package engine

import (
	"context"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called once the bars are loaded and the signals generated,
// before the simulation starts. runID is the identifier stamped on the result.
type OnRunStartCallback func(runID string, strategy types.StrategyInfo, symbols []string, totalDataPoints int) error

// OnRunEndCallback is called after the result is built (and written, when a results folder is set).
type OnRunEndCallback func(runID string, result types.BacktestResult, resultFolderPath string)

// OnProcessDataCallback is called for each timestamp processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

// SingleSymbolStrategy produces one signal per bar for a single symbol.
type SingleSymbolStrategy interface {
	Info() types.StrategyInfo
	GenerateSignals(bars []types.Bar) (types.SignalFrame, error)
}

// MultiSymbolStrategy produces signals for several symbols whose bars are already
// aligned on identical timestamps. The returned map is keyed by symbol.
type MultiSymbolStrategy interface {
	Info() types.StrategyInfo
	GenerateSignals(bars map[string][]types.Bar, symbols []string) (map[string]types.SignalFrame, error)
}

// SignalSource is a closed set of strategy capabilities. The engine branches on the
// concrete type: SingleSource runs the long-only single-symbol simulator and
// PairedSource runs the long/short portfolio simulator.
type SignalSource interface {
	TradedSymbols() []string
	Info() types.StrategyInfo
	isSignalSource()
}

// SingleSource trades one symbol with a single-symbol strategy.
type SingleSource struct {
	Symbol   string
	Strategy SingleSymbolStrategy
}

func (s SingleSource) TradedSymbols() []string   { return []string{s.Symbol} }
func (s SingleSource) Info() types.StrategyInfo { return s.Strategy.Info() }
func (SingleSource) isSignalSource()             {}

// PairedSource trades two or more symbols together with a multi-symbol strategy.
type PairedSource struct {
	Symbols  []string
	Strategy MultiSymbolStrategy
}

func (s PairedSource) TradedSymbols() []string   { return append([]string(nil), s.Symbols...) }
func (s PairedSource) Info() types.StrategyInfo { return s.Strategy.Info() }
func (PairedSource) isSignalSource()             {}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataSource sets the data source the bars are read from.
	SetDataSource(dataSource datasource.DataSource) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Results are stored as <folder>/<strategy>/<symbols>/<run id>. An empty folder disables writing.
	SetResultsFolder(folder string) error
	// Run loads the bars of the source's symbols, generates signals, simulates and
	// returns the result. The context is only consulted before the simulation starts.
	Run(ctx context.Context, source SignalSource, callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
