package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// OLSSlope fits y = alpha + beta*x by ordinary least squares and returns beta.
func OLSSlope(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.Newf(errors.ErrCodeMisalignedSeries, "regression inputs differ in length: %d vs %d", len(x), len(y))
	}

	if len(x) < 2 {
		return 0, errors.NewInsufficientDataErrorf(2, len(x), "", "regression needs at least 2 observations, got %d", len(x))
	}

	mx, okx := mean(x)
	my, oky := mean(y)

	if !okx || !oky {
		return 0, errors.New(errors.ErrCodeIndicatorCalculation, "regression inputs contain NaN")
	}

	var sxy, sxx float64

	for i := range x {
		dx := x[i] - mx
		sxy += dx * (y[i] - my)
		sxx += dx * dx
	}

	if sxx == 0 {
		return 0, errors.New(errors.ErrCodeIndicatorCalculation, "regression is undefined for a constant regressor")
	}

	return sxy / sxx, nil
}

// Correlation is the Pearson correlation of a and b, skipping rows where either is NaN.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Newf(errors.ErrCodeMisalignedSeries, "correlation inputs differ in length: %d vs %d", len(a), len(b))
	}

	var xs, ys []float64

	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}

		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}

	if len(xs) < 2 {
		return 0, errors.NewInsufficientDataErrorf(2, len(xs), "", "correlation needs at least 2 paired observations, got %d", len(xs))
	}

	mx, _ := mean(xs)
	my, _ := mean(ys)

	var sxy, sxx, syy float64

	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	if sxx == 0 || syy == 0 {
		return 0, errors.New(errors.ErrCodeIndicatorCalculation, "correlation is undefined for a constant series")
	}

	return sxy / math.Sqrt(sxx*syy), nil
}

// ReturnCorrelation correlates the simple returns of two price series over the
// last window rows (all rows when window <= 0).
func ReturnCorrelation(a, b []float64, window int) (float64, error) {
	ra, rb := PctChange(a), PctChange(b)

	if window > 0 && window < len(ra) {
		ra = ra[len(ra)-window:]
		rb = rb[len(rb)-window:]
	}

	return Correlation(ra, rb)
}
