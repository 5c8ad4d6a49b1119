package indicator

import "math"

// EMA is the exponential moving average with alpha = 2/(span+1), seeded with the
// first non-NaN value (no bias adjustment). NaN inputs carry the previous value.
func EMA(values []float64, span int) ([]float64, error) {
	if err := validatePeriod("EMA", span); err != nil {
		return nil, err
	}

	out := nanSeries(len(values))
	alpha := 2.0 / float64(span+1)
	prev := math.NaN()

	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}

		out[i] = prev
	}

	return out, nil
}
