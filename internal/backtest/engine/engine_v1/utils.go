package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// getResultFolder builds <results>/<strategy>/<symbols>[/<start>_<end>]/<run id>.
func getResultFolder(resultsFolder string, config BacktestEngineV1Config, strategy types.StrategyInfo, symbols []string, runID string) string {
	name := strategy.ID
	if name == "" {
		name = strategy.Name
	}

	symbolFolder := filepath.Join(resultsFolder, name, strings.Join(symbols, "_"))

	// Add the time range when the run was restricted
	dataFolder := symbolFolder

	if config.StartTime.IsSome() || config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if config.StartTime.IsSome() {
			startTimeStr = config.StartTime.Unwrap().Format("20060102")
		}

		if config.EndTime.IsSome() {
			endTimeStr = config.EndTime.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(symbolFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	}

	return filepath.Join(dataFolder, runID)
}
