package commission_fee

// CommissionFee models the per-trade cost of execution as a fraction of notional.
// Buys and covers pay price*(1+Rate()); sells and shorts receive price*(1-Rate()).
type CommissionFee interface {
	// Calculate returns the cost charged on a notional amount in USD
	Calculate(notional float64) float64
	// Rate returns the combined commission and slippage fraction
	Rate() float64
}

type Broker string

const (
	BrokerFlatRate Broker = "flat_rate"
	BrokerZero     Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerFlatRate,
	BrokerZero,
}

// BuyPrice is the effective per-share cash outflow when buying or covering at price.
func BuyPrice(fee CommissionFee, price float64) float64 {
	return price * (1 + fee.Rate())
}

// SellPrice is the effective per-share cash inflow when selling or shorting at price.
func SellPrice(fee CommissionFee, price float64) float64 {
	return price * (1 - fee.Rate())
}

func GetCommissionFeeHandler(broker Broker, commissionRate, slippageRate float64) CommissionFee {
	switch broker {
	case BrokerFlatRate:
		return NewFlatRateCommissionFee(commissionRate, slippageRate)
	case BrokerZero:
		return NewZeroCommissionFee(slippageRate)
	default:
		return NewFlatRateCommissionFee(commissionRate, slippageRate)
	}
}
