package engine

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// validateParams checks capital and cost rates.
func validateParams(params SimulationParams) error {
	if !(params.InitialCapital > 0) || math.IsInf(params.InitialCapital, 0) {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be a positive number, got %v", params.InitialCapital)
	}

	for name, rate := range map[string]float64{
		"commission rate": params.CommissionRate,
		"slippage rate":   params.SlippageRate,
	} {
		if !(rate >= 0 && rate < 1) {
			return errors.Newf(errors.ErrCodeInvalidRate, "%s must be in [0, 1), got %v", name, rate)
		}
	}

	// a sell must still return a positive amount
	if params.CommissionRate+params.SlippageRate >= 1 {
		return errors.Newf(errors.ErrCodeInvalidRate, "commission rate %v plus slippage rate %v must be below 1",
			params.CommissionRate, params.SlippageRate)
	}

	return nil
}

// validateBars checks a series and returns the number of leading warm-up bars.
// Warm-up bars (NaN close) are only tolerated at the head of the series.
func validateBars(symbol string, bars []types.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, errors.Newf(errors.ErrCodeEmptySeries, "bar series for %s is empty", symbol)
	}

	leading := 0
	for leading < len(bars) && bars[leading].IsWarmup() {
		leading++
	}

	if leading == len(bars) {
		return 0, errors.Newf(errors.ErrCodeEmptySeries, "bar series for %s has no valid close price in %s", symbol, describeRange(bars))
	}

	for i := range bars {
		if i > 0 && !bars[i].Time.After(bars[i-1].Time) {
			return 0, errors.Newf(errors.ErrCodeNonMonotonicTime,
				"timestamps for %s are not strictly increasing at index %d (%s after %s)",
				symbol, i, bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}

		if i < leading {
			continue
		}

		bar := bars[i]

		if !(bar.Close > 0) {
			return 0, errors.Newf(errors.ErrCodeNonPositivePrice,
				"close price must be positive for %s at index %d (%s), got %v",
				symbol, i, bar.Time.Format(time.RFC3339), bar.Close)
		}

		if err := bar.Validate(); err != nil {
			return 0, errors.Wrapf(errors.ErrCodeInvalidBar, err,
				"invalid bar for %s at index %d (%s)", symbol, i, bar.Time.Format(time.RFC3339))
		}
	}

	return leading, nil
}

func validateSignals(symbol string, signals []types.Signal, n int) error {
	if len(signals) != n {
		return errors.Newf(errors.ErrCodeMisalignedSeries, "%s has %d bars but %d signals", symbol, n, len(signals))
	}

	for i, s := range signals {
		if !s.Valid() {
			return errors.Newf(errors.ErrCodeInvalidSignal, "signal for %s at index %d must be -1, 0 or 1, got %d", symbol, i, int8(s))
		}
	}

	return nil
}

// validateAlignment requires every symbol to share the timestamps of the first one.
func validateAlignment(bars map[string][]types.Bar, symbols []string) error {
	ref := bars[symbols[0]]

	for _, symbol := range symbols[1:] {
		series := bars[symbol]
		if len(series) != len(ref) {
			return errors.Newf(errors.ErrCodeMisalignedSeries,
				"%s has %d bars but %s has %d", symbol, len(series), symbols[0], len(ref))
		}

		for i := range series {
			if !series[i].Time.Equal(ref[i].Time) {
				return errors.Newf(errors.ErrCodeMisalignedSeries,
					"%s and %s disagree at index %d (%s vs %s)",
					symbol, symbols[0], i, series[i].Time.Format(time.RFC3339), ref[i].Time.Format(time.RFC3339))
			}
		}
	}

	return nil
}

func validateSymbols(symbols []string, minCount int) error {
	if len(symbols) < minCount {
		return errors.Newf(errors.ErrCodeInvalidSymbols, "at least %d symbols are required, got %d", minCount, len(symbols))
	}

	seen := make(map[string]struct{}, len(symbols))

	for _, symbol := range symbols {
		if symbol == "" {
			return errors.New(errors.ErrCodeInvalidSymbols, "symbol must not be empty")
		}

		if _, dup := seen[symbol]; dup {
			return errors.Newf(errors.ErrCodeInvalidSymbols, "symbol %s is listed twice", symbol)
		}

		seen[symbol] = struct{}{}
	}

	return nil
}

func describeRange(bars []types.Bar) string {
	if len(bars) == 0 {
		return "an empty range"
	}

	return bars[0].Time.Format(time.RFC3339) + " .. " + bars[len(bars)-1].Time.Format(time.RFC3339)
}
