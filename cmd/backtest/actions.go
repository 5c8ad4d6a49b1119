package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
	"github.com/rxtech-lab/argo-backtest/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	return execute(ctx, cmd, strategy.MACrossoverID, func(registry strategy.Registry, id string, params map[string]any) ([]engine.SignalSource, error) {
		var sources []engine.SignalSource

		for _, symbol := range cmd.StringSlice("symbol") {
			source, err := registry.Build(id, params, []string{symbol})
			if err != nil {
				return nil, err
			}

			sources = append(sources, source)
		}

		return sources, nil
	})
}

func pairAction(ctx context.Context, cmd *cli.Command) error {
	return execute(ctx, cmd, strategy.PairTradingID, func(registry strategy.Registry, id string, params map[string]any) ([]engine.SignalSource, error) {
		source, err := registry.Build(id, params, cmd.StringSlice("symbols"))
		if err != nil {
			return nil, err
		}

		return []engine.SignalSource{source}, nil
	})
}

type sourceBuilder func(registry strategy.Registry, id string, params map[string]any) ([]engine.SignalSource, error)

func execute(ctx context.Context, cmd *cli.Command, defaultStrategy string, build sourceBuilder) error {
	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	config, err := readOptionalFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	params, err := loadParams(cmd.String("params"), cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	id := cmd.String("strategy")
	if id == "" {
		id = defaultStrategy
	}

	sources, err := build(strategy.NewDefaultRegistry(), id, params)
	if err != nil {
		return err
	}

	backtester := engine_v1.NewBacktestEngineV1WithLogger(log)
	if err := backtester.Initialize(config); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	ds, err := loadData(cmd.String("data"), log)
	if err != nil {
		return err
	}

	if err := backtester.SetDataSource(ds); err != nil {
		return err
	}

	for _, source := range sources {
		result, err := backtester.Run(ctx, source, progressCallbacks(log))
		if err != nil {
			return err
		}

		fmt.Println(renderSummary(result))
	}

	return nil
}

// loadData opens the file through DuckDB and keeps every bar in memory, so several
// runs over the same file query it only once.
func loadData(path string, log *logger.Logger) (datasource.DataSource, error) {
	duck, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}

	defer func() { _ = duck.Close() }()

	if err := duck.Initialize(path); err != nil {
		return nil, err
	}

	preloaded, err := datasource.Preload(duck, optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return nil, err
	}

	log.Info("Market data loaded", zap.String("path", path))

	return preloaded, nil
}

func progressCallbacks(log *logger.Logger) engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onStart := engine.OnRunStartCallback(func(runID string, info types.StrategyInfo, symbols []string, total int) error {
		bar = progressbar.Default(int64(total))
		bar.Describe(fmt.Sprintf("Running %s on %s", info.Name, strings.Join(symbols, ",")))

		return nil
	})

	onData := engine.OnProcessDataCallback(func(current int, total int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})

	onEnd := engine.OnRunEndCallback(func(runID string, result types.BacktestResult, resultFolderPath string) {
		if bar != nil {
			_ = bar.Finish()
		}

		if resultFolderPath != "" {
			log.Info("Results written", zap.String("run_id", runID), zap.String("folder", resultFolderPath))
		}
	})

	return engine.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnRunEnd:      &onEnd,
		OnProcessData: &onData,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	if id := cmd.String("strategy"); id != "" {
		schema, err = strategy.NewDefaultRegistry().Schema(id)
	} else {
		schema, err = engine_v1.NewBacktestEngineV1WithLogger(logger.NewNopLogger()).GetConfigSchema()
	}

	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func strategiesAction(_ context.Context, _ *cli.Command) error {
	fmt.Println(renderStrategies(strategy.NewDefaultRegistry().List()))

	return nil
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// loadParams reads the parameter file, if any, and applies the key=value overrides.
// Override values are parsed as YAML scalars so "20" is an int and "true" a bool.
func loadParams(path string, overrides []string) (map[string]any, error) {
	params := map[string]any{}

	content, err := readOptionalFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params: %w", err)
	}

	if content != "" {
		if err := yaml.Unmarshal([]byte(content), &params); err != nil {
			return nil, fmt.Errorf("failed to parse params %s: %w", path, err)
		}
	}

	for _, override := range overrides {
		key, raw, ok := strings.Cut(override, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", override)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for param %s: %w", key, err)
		}

		params[strings.TrimSpace(key)] = value
	}

	return params, nil
}

func defaultParams(def strategy.Definition) map[string]any {
	params, err := utils.ToParamMap(def.DefaultParams())
	if err != nil {
		return nil
	}

	return params
}

func synthAction(_ context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	config := mocks.DefaultConfig()
	config.Count = int(cmd.Int("count"))

	bars, err := synthesize(mocks.NewDataGenerator(int64(cmd.Int("seed"))), config, cmd.StringSlice("symbols"), cmd.Bool("cointegrated"), cmd.Float("hedge-ratio"))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	_, err = writer.WriteBars(writer.NewDuckDBWriter(output, log), bars)

	return err
}

func synthesize(generator *mocks.DataGenerator, config mocks.GeneratorConfig, symbols []string, cointegrated bool, hedgeRatio float64) ([]types.Bar, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	var bars []types.Bar

	rest := symbols

	if cointegrated {
		if len(symbols) < 2 {
			return nil, fmt.Errorf("a cointegrated pair needs two symbols, got %d", len(symbols))
		}

		a, b := generator.GeneratePair(symbols[0], symbols[1], config, hedgeRatio, 0)
		bars = append(bars, a...)
		bars = append(bars, b...)
		rest = symbols[2:]
	}

	for _, series := range generator.GenerateMultiSymbol(rest, config) {
		bars = append(bars, series...)
	}

	return bars, nil
}
