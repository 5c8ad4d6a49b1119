package commission_fee

// FlatRateCommissionFee charges a fixed commission rate plus a fixed slippage rate
// on every fill.
type FlatRateCommissionFee struct {
	CommissionRate float64
	SlippageRate   float64
}

func NewFlatRateCommissionFee(commissionRate, slippageRate float64) CommissionFee {
	return &FlatRateCommissionFee{
		CommissionRate: commissionRate,
		SlippageRate:   slippageRate,
	}
}

func (c *FlatRateCommissionFee) Rate() float64 {
	return c.CommissionRate + c.SlippageRate
}

func (c *FlatRateCommissionFee) Calculate(notional float64) float64 {
	if notional < 0 {
		notional = -notional
	}

	return notional * c.Rate()
}
