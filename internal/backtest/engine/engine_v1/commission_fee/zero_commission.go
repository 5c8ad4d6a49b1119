package commission_fee

// ZeroCommissionFee implements CommissionFee with no commission. Slippage still applies.
type ZeroCommissionFee struct {
	SlippageRate float64
}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee(slippageRate float64) CommissionFee {
	return &ZeroCommissionFee{SlippageRate: slippageRate}
}

func (c *ZeroCommissionFee) Rate() float64 {
	return c.SlippageRate
}

// Calculate returns the slippage cost only.
func (c *ZeroCommissionFee) Calculate(notional float64) float64 {
	if notional < 0 {
		notional = -notional
	}

	return notional * c.SlippageRate
}
