// Package spread computes the hedge-adjusted price spread of two symbols, its rolling
// z-score, and the pair-trading state machine driven by that z-score.
package spread

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MinWindow is the smallest rolling window accepted for the spread statistics.
const MinWindow = 5

// Series is the spread of A against B and its rolling statistics, aligned by row.
type Series struct {
	HedgeRatio float64
	Spread     []float64
	Mean       []float64
	Std        []float64
	// ZScore is NaN during warm-up and wherever Std is zero.
	ZScore []float64
}

// Compute builds spread[t] = a[t] - hedge*b[t] with rolling mean, sample std and
// z-score over window rows. When hedge is None the ratio is the OLS slope of b on a
// over the last window rows.
func Compute(a, b []float64, window int, hedge optional.Option[float64]) (Series, error) {
	if len(a) != len(b) {
		return Series{}, errors.Newf(errors.ErrCodeMisalignedSeries, "spread legs differ in length: %d vs %d", len(a), len(b))
	}

	if window < MinWindow {
		return Series{}, errors.Newf(errors.ErrCodeInvalidPeriod, "window must be at least %d, got %d", MinWindow, window)
	}

	ratio, err := resolveHedgeRatio(a, b, window, hedge)
	if err != nil {
		return Series{}, err
	}

	spread := make([]float64, len(a))
	for i := range a {
		spread[i] = a[i] - ratio*b[i]
	}

	mean, err := indicator.SMA(spread, window)
	if err != nil {
		return Series{}, err
	}

	std, err := indicator.RollingStd(spread, window)
	if err != nil {
		return Series{}, err
	}

	z := indicator.ZScore(spread, mean, std)

	return Series{
		HedgeRatio: ratio,
		Spread:     spread,
		Mean:       mean,
		Std:        std,
		ZScore:     z,
	}, nil
}

func resolveHedgeRatio(a, b []float64, window int, hedge optional.Option[float64]) (float64, error) {
	if hedge.IsSome() {
		ratio := hedge.Unwrap()
		if !(ratio > 0) || math.IsInf(ratio, 0) {
			return 0, errors.Newf(errors.ErrCodeInvalidHedgeRatio, "hedge ratio must be positive, got %v", ratio)
		}

		return ratio, nil
	}

	if len(a) < window {
		return 0, errors.NewInsufficientDataErrorf(window, len(a), "", "dynamic hedge ratio needs %d observations, got %d", window, len(a))
	}

	ratio, err := indicator.OLSSlope(a[len(a)-window:], b[len(b)-window:])
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidHedgeRatio, "failed to estimate hedge ratio", err)
	}

	if !(ratio > 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidHedgeRatio, "estimated hedge ratio must be positive, got %v", ratio)
	}

	return ratio, nil
}
