package indicator

import "math"

// RSI is the relative strength index using simple rolling averages of gains and
// losses over period price changes. The first row and any row whose change is NaN
// count as no gain and no loss. A window with no losses yields 100; a window with
// neither gains nor losses is undefined (NaN).
func RSI(values []float64, period int) ([]float64, error) {
	if err := validatePeriod("RSI", period); err != nil {
		return nil, err
	}

	n := len(values)
	gains := make([]float64, n)
	losses := make([]float64, n)

	for i := 1; i < n; i++ {
		delta := values[i] - values[i-1]
		if math.IsNaN(delta) {
			continue
		}

		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}

	avgGain, err := SMA(gains, period)
	if err != nil {
		return nil, err
	}

	avgLoss, err := SMA(losses, period)
	if err != nil {
		return nil, err
	}

	out := nanSeries(n)

	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
		case l == 0 && g == 0:
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}

	return out, nil
}
