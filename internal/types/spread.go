package types

// SpreadState is the position state of a traded pair.
type SpreadState string

const (
	SpreadStateFlat SpreadState = "FLAT"
	// SpreadStateLong is long the first symbol and short the second.
	SpreadStateLong SpreadState = "LONG_SPREAD"
	// SpreadStateShort is short the first symbol and long the second.
	SpreadStateShort SpreadState = "SHORT_SPREAD"
)
