package engine

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MetricsOptions tunes how a run is scored.
type MetricsOptions struct {
	// PeriodsPerYear annualizes the Sharpe ratio. Zero means DefaultPeriodsPerYear.
	PeriodsPerYear float64
	// PairBySymbol pairs trades per symbol instead of across the whole log.
	// Multi-symbol runs interleave symbols in the log and need this.
	PairBySymbol bool
}

func (o MetricsOptions) periodsPerYear() float64 {
	if o.PeriodsPerYear > 0 {
		return o.PeriodsPerYear
	}

	return DefaultPeriodsPerYear
}

// CalculateMetrics derives the performance figures of a finished run.
// Degenerate inputs never produce NaN or Inf; those figures come back as 0.
func CalculateMetrics(equity []float64, trades []types.Trade, initialCapital float64, opts MetricsOptions) types.Metrics {
	metrics := types.Metrics{TotalTrades: len(trades)}

	if len(equity) > 0 && initialCapital > 0 {
		metrics.TotalReturnPct = finite((equity[len(equity)-1] - initialCapital) / initialCapital * 100)
	}

	metrics.SharpeRatio = finite(sharpeRatio(equity, opts.periodsPerYear()))
	metrics.MaxDrawdownPct = finite(maxDrawdownPct(equity))

	if opts.PairBySymbol {
		metrics.WinRatePct = finite(winRatePctBySymbol(trades))
	} else {
		metrics.WinRatePct = finite(winRatePct(trades))
	}

	return metrics
}

// sharpeRatio uses the sample standard deviation of per-step returns.
func sharpeRatio(equity []float64, periodsPerYear float64) float64 {
	if len(equity) < 3 {
		return 0
	}

	// the first element has no predecessor
	returns := indicator.PctChange(equity)[1:]

	var sum float64
	for _, r := range returns {
		sum += r
	}

	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}

	std := math.Sqrt(sq / float64(len(returns)-1))
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return math.Sqrt(periodsPerYear) * mean / std
}

// maxDrawdownPct is the deepest fall from a running peak, in percent. Always <= 0.
func maxDrawdownPct(equity []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0

	for _, v := range equity {
		if math.IsNaN(v) {
			continue
		}

		if v > peak {
			peak = v
		}

		if peak <= 0 {
			continue
		}

		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}

	return worst * 100
}

// winRatePct pairs trades (2i, 2i+1) in log order. A pair wins when the cash after
// the closing trade exceeds the cash after the opening one.
func winRatePct(trades []types.Trade) float64 {
	pairs := len(trades) / 2
	if pairs == 0 {
		return 0
	}

	wins := 0
	for i := 0; i+1 < len(trades); i += 2 {
		if trades[i+1].CapitalAfter > trades[i].CapitalAfter {
			wins++
		}
	}

	return float64(wins) / float64(pairs) * 100
}

func winRatePctBySymbol(trades []types.Trade) float64 {
	order := make([]string, 0)
	bySymbol := make(map[string][]types.Trade)

	for _, t := range trades {
		if _, ok := bySymbol[t.Symbol]; !ok {
			order = append(order, t.Symbol)
		}

		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	pairs, wins := 0, 0

	for _, symbol := range order {
		log := bySymbol[symbol]
		for i := 0; i+1 < len(log); i += 2 {
			pairs++

			if log[i+1].CapitalAfter > log[i].CapitalAfter {
				wins++
			}
		}
	}

	if pairs == 0 {
		return 0
	}

	return float64(wins) / float64(pairs) * 100
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
