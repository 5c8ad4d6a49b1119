package engine

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BuildRoundTrips pairs each opening trade with the next trade of the same symbol.
// Symbols appear in order of their first trade. A trailing unmatched trade is dropped.
func BuildRoundTrips(trades []types.Trade) []types.RoundTrip {
	order := make([]string, 0)
	open := make(map[string]*types.Trade)
	bySymbol := make(map[string][]types.RoundTrip)

	for i := range trades {
		t := trades[i]

		if _, seen := bySymbol[t.Symbol]; !seen {
			order = append(order, t.Symbol)
			bySymbol[t.Symbol] = make([]types.RoundTrip, 0)
		}

		entry := open[t.Symbol]
		if entry == nil {
			if t.IsOpening() {
				open[t.Symbol] = &t
			}

			continue
		}

		if t.IsOpening() {
			// a second opening leg without a close; restart from it
			open[t.Symbol] = &t

			continue
		}

		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], newRoundTrip(*entry, t))
		open[t.Symbol] = nil
	}

	trips := make([]types.RoundTrip, 0, len(trades)/2)
	for _, symbol := range order {
		trips = append(trips, bySymbol[symbol]...)
	}

	return trips
}

func newRoundTrip(entry, exit types.Trade) types.RoundTrip {
	side := types.RoundTripLong
	if entry.Type == types.TradeTypeShort {
		side = types.RoundTripShort
	}

	entryPrice := decimal.NewFromFloat(entry.Price)
	exitPrice := decimal.NewFromFloat(exit.Price)

	ret := decimal.Zero
	if !entryPrice.IsZero() {
		ret = exitPrice.Sub(entryPrice).Div(entryPrice).Mul(hundred)
	}

	if side == types.RoundTripShort {
		ret = ret.Neg()
	}

	return types.RoundTrip{
		Symbol:     entry.Symbol,
		Side:       side,
		EntryTime:  entry.Time,
		ExitTime:   exit.Time,
		EntryPrice: entry.Price,
		ExitPrice:  exit.Price,
		ReturnPct:  ret.Round(6).InexactFloat64(),
		Shares:     entry.Shares,
		Won:        exit.CapitalAfter > entry.CapitalAfter,
	}
}
