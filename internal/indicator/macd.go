package indicator

import "github.com/rxtech-lab/argo-backtest/pkg/errors"

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) line and the histogram.
func MACD(values []float64, fast, slow, signal int) (MACDResult, error) {
	if fast >= slow {
		return MACDResult{}, errors.Newf(errors.ErrCodeInvalidPeriod, "MACD fast period %d must be less than slow period %d", fast, slow)
	}

	emaFast, err := EMA(values, fast)
	if err != nil {
		return MACDResult{}, err
	}

	emaSlow, err := EMA(values, slow)
	if err != nil {
		return MACDResult{}, err
	}

	line := make([]float64, len(values))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}

	signalLine, err := EMA(line, signal)
	if err != nil {
		return MACDResult{}, err
	}

	hist := make([]float64, len(values))
	for i := range hist {
		hist[i] = line[i] - signalLine[i]
	}

	return MACDResult{MACD: line, Signal: signalLine, Histogram: hist}, nil
}
