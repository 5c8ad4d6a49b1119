package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Metrics are the performance figures derived from an equity curve and a trade log.
type Metrics struct {
	// Total return in percent relative to the initial capital.
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// Annualized Sharpe ratio of per-step equity returns.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// Maximum drawdown in percent. Zero or negative.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// Count of all executed trades (opening and closing legs).
	TotalTrades int `yaml:"total_trades" json:"total_trades"`
	// Percentage of completed trade pairs whose closing cash exceeds the opening cash.
	WinRatePct float64 `yaml:"win_rate_pct" json:"win_rate_pct"`
}

// StrategyInfo contains metadata about the strategy that generated a result.
type StrategyInfo struct {
	// ID is the registry identifier (e.g. "pair_trading")
	ID string `yaml:"id" json:"id"`
	// Name is the human-readable name of the strategy
	Name   string         `yaml:"name" json:"name"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	// EngineConstraint is a semver range the running engine must satisfy (e.g. ">= 1.0.0")
	EngineConstraint string `yaml:"engine_constraint,omitempty" json:"engine_constraint,omitempty"`
}

// BacktestResult is the immutable aggregate produced once at the end of a run.
type BacktestResult struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp     time.Time    `yaml:"timestamp" json:"timestamp"`
	EngineVersion string       `yaml:"engine_version" json:"engine_version"`
	Strategy      StrategyInfo `yaml:"strategy" json:"strategy"`
	Symbols       []string     `yaml:"symbols" json:"symbols"`

	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalCapital   float64 `yaml:"final_capital" json:"final_capital"`
	Metrics        `yaml:",inline"`

	Trades      []Trade       `yaml:"-" json:"trades"`
	EquityCurve []EquityPoint `yaml:"-" json:"equity_curve"`
	RoundTrips  []RoundTrip   `yaml:"-" json:"round_trips"`
	Frames      []SignalFrame `yaml:"-" json:"-"`
}

// TradeLog returns a copy of the trade log for read-only consumers.
func (r BacktestResult) TradeLog() []Trade {
	return append([]Trade(nil), r.Trades...)
}

// Equity returns a copy of the equity curve for read-only consumers.
func (r BacktestResult) Equity() []EquityPoint {
	return append([]EquityPoint(nil), r.EquityCurve...)
}

// TradesFor returns the trades of one symbol in emission order.
func (r BacktestResult) TradesFor(symbol string) []Trade {
	var out []Trade

	for _, t := range r.Trades {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}

	return out
}

func WriteBacktestResults(path string, results []BacktestResult) error {
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest results to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest results to file: %w", err)
	}

	return nil
}

// ReadBacktestResults loads the summary fields written by WriteBacktestResults.
// Trades and equity are not part of the YAML file.
func ReadBacktestResults(path string) ([]BacktestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backtest results: %w", err)
	}

	var results []BacktestResult
	if err := yaml.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest results: %w", err)
	}

	return results, nil
}
