package datasource

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Align restricts the series of every symbol to the timestamps present in all of
// them, so that row i refers to the same instant for each symbol. The order of
// each series is preserved. A timestamp repeated within one symbol is rejected.
func Align(series map[string][]types.Bar, symbols []string) (map[string][]types.Bar, error) {
	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSymbols, "at least one symbol is required for alignment")
	}

	counts := make(map[int64]int)

	for _, symbol := range symbols {
		bars, ok := series[symbol]
		if !ok || len(bars) == 0 {
			return nil, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
		}

		seen := make(map[int64]struct{}, len(bars))

		for i, bar := range bars {
			key := bar.Time.UnixNano()
			if _, dup := seen[key]; dup {
				return nil, errors.Newf(errors.ErrCodeNonMonotonicTime,
					"duplicate timestamp %s for %s at index %d", bar.Time.Format(time.RFC3339), symbol, i)
			}

			seen[key] = struct{}{}
			counts[key]++
		}
	}

	aligned := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		bars := series[symbol]
		out := make([]types.Bar, 0, len(bars))

		for _, bar := range bars {
			if counts[bar.Time.UnixNano()] != len(symbols) {
				continue
			}

			out = append(out, bar)
		}

		aligned[symbol] = out
	}

	if len(aligned[symbols[0]]) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoOverlappingData, "symbols %v share no common timestamps", symbols)
	}

	return aligned, nil
}

// CommonRange returns the first and last timestamp of an aligned series set.
func CommonRange(aligned map[string][]types.Bar, symbols []string) (time.Time, time.Time) {
	if len(symbols) == 0 || len(aligned[symbols[0]]) == 0 {
		return time.Time{}, time.Time{}
	}

	bars := aligned[symbols[0]]

	return bars[0].Time, bars[len(bars)-1].Time
}
