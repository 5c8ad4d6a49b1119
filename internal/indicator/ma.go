package indicator

import "math"

// SMA is the simple moving average over period rows.
func SMA(values []float64, period int) ([]float64, error) {
	if err := validatePeriod("SMA", period); err != nil {
		return nil, err
	}

	out := nanSeries(len(values))
	sum := 0.0
	nans := 0

	for i, v := range values {
		if math.IsNaN(v) {
			nans++
		} else {
			sum += v
		}

		if i >= period {
			old := values[i-period]
			if math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}

		if i >= period-1 && nans == 0 {
			out[i] = sum / float64(period)
		}
	}

	return out, nil
}

// RollingStd is the rolling sample standard deviation (n-1 denominator).
// It recomputes each window with a two-pass mean to stay accurate on flat series.
func RollingStd(values []float64, period int) ([]float64, error) {
	if err := validatePeriod("RollingStd", period); err != nil {
		return nil, err
	}

	out := nanSeries(len(values))
	if period < 2 {
		return out, nil
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]

		mean, ok := mean(window)
		if !ok {
			continue
		}

		ss := 0.0
		for _, v := range window {
			d := v - mean
			ss += d * d
		}

		out[i] = math.Sqrt(ss / float64(period-1))
	}

	return out, nil
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sum := 0.0

	for _, v := range values {
		if math.IsNaN(v) {
			return 0, false
		}

		sum += v
	}

	return sum / float64(len(values)), true
}
