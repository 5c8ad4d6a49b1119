package engine

import (
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// SimulationParams are the run-wide inputs shared by both simulators.
type SimulationParams struct {
	InitialCapital float64
	CommissionRate float64
	SlippageRate   float64
	// Broker selects the cost model. Empty means flat rate.
	Broker commission_fee.Broker
	// Progress, when set, is called after every processed timestamp. Returning an
	// error abandons the run.
	Progress func(current int, total int) error
}

func (p SimulationParams) commissionFee() commission_fee.CommissionFee {
	return commission_fee.GetCommissionFeeHandler(p.Broker, p.CommissionRate, p.SlippageRate)
}

// SimulationOutput is what a simulator hands to the metrics calculator.
type SimulationOutput struct {
	Trades      []types.Trade
	EquityCurve []types.EquityPoint
	// FinalCapital is the cash after the end-of-run close; it equals the last equity point.
	FinalCapital float64
	// Positions holds the signed quantity per symbol after the run. Always zero.
	Positions map[string]float64
}

// Equity returns the equity values without timestamps.
func (o SimulationOutput) Equity() []float64 {
	return types.EquityValues(o.EquityCurve)
}
