package indicator

import "github.com/rxtech-lab/argo-backtest/pkg/errors"

// BollingerBandsResult holds the band series.
type BollingerBandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands computes SMA(period) +/- stdDev * RollingStd(period).
func BollingerBands(values []float64, period int, stdDev float64) (BollingerBandsResult, error) {
	if stdDev <= 0 {
		return BollingerBandsResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "bollinger std_dev must be positive, got %v", stdDev)
	}

	middle, err := SMA(values, period)
	if err != nil {
		return BollingerBandsResult{}, err
	}

	std, err := RollingStd(values, period)
	if err != nil {
		return BollingerBandsResult{}, err
	}

	upper := make([]float64, len(values))
	lower := make([]float64, len(values))

	for i := range values {
		upper[i] = middle[i] + stdDev*std[i]
		lower[i] = middle[i] - stdDev*std[i]
	}

	return BollingerBandsResult{Upper: upper, Middle: middle, Lower: lower}, nil
}
