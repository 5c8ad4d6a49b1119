// Package indicator computes technical indicator series over close prices.
//
// Every function returns a slice aligned with its input. Rows inside the warm-up
// window (or whose window contains a NaN) are NaN, never zero.
package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

func validatePeriod(name string, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s period must be a positive integer, got %d", name, period)
	}

	return nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// PctChange returns the simple returns v[i]/v[i-1]-1. The first row is NaN.
func PctChange(values []float64) []float64 {
	out := nanSeries(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i]/values[i-1] - 1
	}

	return out
}

// CrossedAbove reports whether a moved from <= b at i-1 to > b at i.
// Comparisons against NaN are false, so warm-up rows never cross.
func CrossedAbove(a, b []float64, i int) bool {
	if i < 1 {
		return false
	}

	return a[i] > b[i] && a[i-1] <= b[i-1]
}

// CrossedBelow reports whether a moved from >= b at i-1 to < b at i.
func CrossedBelow(a, b []float64, i int) bool {
	if i < 1 {
		return false
	}

	return a[i] < b[i] && a[i-1] >= b[i-1]
}

// Constant returns a series of n copies of v, handy for crossing a fixed level.
func Constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}

// ZScore returns (v-mean)/std row by row. Rows where std is zero or NaN are NaN.
func ZScore(values, mean, std []float64) []float64 {
	out := nanSeries(len(values))
	for i := range out {
		if std[i] == 0 || math.IsNaN(std[i]) {
			continue
		}

		out[i] = (values[i] - mean[i]) / std[i]
	}

	return out
}
