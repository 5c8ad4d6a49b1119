package types

import "time"

type TradeType string

const (
	TradeTypeBuy   TradeType = "BUY"
	TradeTypeSell  TradeType = "SELL"
	TradeTypeShort TradeType = "SHORT"
	TradeTypeCover TradeType = "COVER"
)

const (
	TradeReasonSignal     string = "signal"
	TradeReasonForceClose string = "end_of_run"
	TradeReasonFlip       string = "flip"
)

// IsOpening reports whether the trade opens a position (BUY or SHORT).
func (t TradeType) IsOpening() bool {
	return t == TradeTypeBuy || t == TradeTypeShort
}

// Trade is an executed order. Trades are append-only and never mutated.
type Trade struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Type   TradeType `yaml:"type" json:"type" csv:"type"`
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	// Price is the bar close the order executed at, before commission and slippage.
	Price  float64 `yaml:"price" json:"price" csv:"price"`
	Shares float64 `yaml:"shares" json:"shares" csv:"shares"`
	// CapitalAfter is the cash balance right after the trade settled.
	CapitalAfter float64 `yaml:"capital_after" json:"capital_after" csv:"capital_after"`
	Reason       string  `yaml:"reason" json:"reason" csv:"reason"`
}

// IsOpening reports whether the trade opens a position.
func (t Trade) IsOpening() bool {
	return t.Type.IsOpening()
}

// RoundTripSide is the direction of a completed round trip.
type RoundTripSide string

const (
	RoundTripLong  RoundTripSide = "LONG"
	RoundTripShort RoundTripSide = "SHORT"
)

// RoundTrip pairs an opening trade with its closing trade.
type RoundTrip struct {
	Symbol     string        `yaml:"symbol" json:"symbol"`
	Side       RoundTripSide `yaml:"side" json:"side"`
	EntryTime  time.Time     `yaml:"entry_time" json:"entry_time"`
	ExitTime   time.Time     `yaml:"exit_time" json:"exit_time"`
	EntryPrice float64       `yaml:"entry_price" json:"entry_price"`
	ExitPrice  float64       `yaml:"exit_price" json:"exit_price"`
	// ReturnPct is the price return of the trip in percent, sign-adjusted for shorts.
	ReturnPct float64 `yaml:"return_pct" json:"return_pct"`
	Shares    float64 `yaml:"shares" json:"shares"`
	// Won compares the cash recorded after the closing trade to the cash after the opening trade.
	Won bool `yaml:"won" json:"won"`
}

// Position is the signed holding of a symbol. Positive is long, negative short.
type Position struct {
	Symbol   string  `yaml:"symbol" json:"symbol"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

func (p Position) IsLong() bool  { return p.Quantity > 0 }
func (p Position) IsShort() bool { return p.Quantity < 0 }
func (p Position) IsFlat() bool  { return p.Quantity == 0 }

// MarketValue is the signed mark-to-market value of the position.
func (p Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// EquityPoint is the portfolio value at one timestamp.
type EquityPoint struct {
	Time   time.Time `yaml:"time" json:"time"`
	Equity float64   `yaml:"equity" json:"equity"`
}

// EquityValues extracts the equity values of a curve.
func EquityValues(curve []EquityPoint) []float64 {
	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Equity
	}

	return values
}
