package engine

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// PortfolioSimulator walks N aligned series, holding one signed position per symbol.
// It keeps no state between runs and is safe for concurrent use.
type PortfolioSimulator struct {
	log *logger.Logger
}

func NewPortfolioSimulator(log *logger.Logger) *PortfolioSimulator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PortfolioSimulator{log: log.Named("portfolio")}
}

// portfolioState is owned by a single Run call.
type portfolioState struct {
	cash      float64
	positions map[string]float64
	trades    []types.Trade
}

func (p *portfolioState) equity(bars map[string][]types.Bar, symbols []string, i int) float64 {
	equity := p.cash

	for _, symbol := range symbols {
		if qty := p.positions[symbol]; qty != 0 {
			equity += types.Position{Symbol: symbol, Quantity: qty}.MarketValue(bars[symbol][i].Close)
		}
	}

	return equity
}

func (p *portfolioState) record(bar types.Bar, tradeType types.TradeType, shares float64, reason string) types.Trade {
	trade := types.Trade{
		Symbol:       bar.Symbol,
		Type:         tradeType,
		Time:         bar.Time,
		Price:        bar.Close,
		Shares:       shares,
		CapitalAfter: p.cash,
		Reason:       reason,
	}
	p.trades = append(p.trades, trade)

	return trade
}

func (p *portfolioState) closePosition(symbol string, bar types.Bar, reason string, fee commission_fee.CommissionFee) types.Trade {
	qty := p.positions[symbol]
	p.positions[symbol] = 0

	if qty > 0 {
		p.cash += qty * commission_fee.SellPrice(fee, bar.Close)

		return p.record(bar, types.TradeTypeSell, qty, reason)
	}

	p.cash -= -qty * commission_fee.BuyPrice(fee, bar.Close)

	return p.record(bar, types.TradeTypeCover, -qty, reason)
}

// allocation is the number of shares a new position may take: floor((cash/N) / (price*(1+c+s))).
func (p *portfolioState) allocation(price float64, n int, fee commission_fee.CommissionFee) float64 {
	return math.Floor((p.cash / float64(n)) / commission_fee.BuyPrice(fee, price))
}

// apply handles one symbol at one timestamp and returns the trades it emitted.
func (s *PortfolioSimulator) apply(state *portfolioState, bar types.Bar, signal types.Signal, n int, fee commission_fee.CommissionFee) []types.Trade {
	qty := state.positions[bar.Symbol]

	var emitted []types.Trade

	switch {
	case signal == types.SignalBuy && qty <= 0:
		reason := types.TradeReasonSignal
		if qty < 0 {
			emitted = append(emitted, state.closePosition(bar.Symbol, bar, types.TradeReasonSignal, fee))
			reason = types.TradeReasonFlip
		}

		shares := state.allocation(bar.Close, n, fee)
		if shares <= 0 {
			s.logSkip(bar, signal, state.cash)

			return emitted
		}

		state.cash -= shares * commission_fee.BuyPrice(fee, bar.Close)
		state.positions[bar.Symbol] = shares
		emitted = append(emitted, state.record(bar, types.TradeTypeBuy, shares, reason))

	case signal == types.SignalSell && qty >= 0:
		reason := types.TradeReasonSignal
		if qty > 0 {
			emitted = append(emitted, state.closePosition(bar.Symbol, bar, types.TradeReasonSignal, fee))
			reason = types.TradeReasonFlip
		}

		shares := state.allocation(bar.Close, n, fee)
		if shares <= 0 {
			s.logSkip(bar, signal, state.cash)

			return emitted
		}

		state.cash += shares * commission_fee.SellPrice(fee, bar.Close)
		state.positions[bar.Symbol] = -shares
		emitted = append(emitted, state.record(bar, types.TradeTypeShort, shares, reason))
	}

	return emitted
}

// Run simulates the aligned series of symbols. Symbols are processed in the given
// order at every timestamp, which fixes the trade emission order. Every open position
// is closed at the final timestamp and the last equity point is the settled cash.
func (s *PortfolioSimulator) Run(bars map[string][]types.Bar, signals map[string][]types.Signal, symbols []string, params SimulationParams) (SimulationOutput, error) {
	if err := validateParams(params); err != nil {
		return SimulationOutput{}, err
	}

	if err := validateSymbols(symbols, 2); err != nil {
		return SimulationOutput{}, err
	}

	leading := make(map[string]int, len(symbols))

	for _, symbol := range symbols {
		series, ok := bars[symbol]
		if !ok {
			return SimulationOutput{}, errors.Newf(errors.ErrCodeDataNotFound, "no bars supplied for %s", symbol)
		}

		n, err := validateBars(symbol, series)
		if err != nil {
			return SimulationOutput{}, err
		}

		leading[symbol] = n

		for i := range series {
			if series[i].Symbol != "" && series[i].Symbol != symbol {
				return SimulationOutput{}, errors.Newf(errors.ErrCodeInvalidBar, "bar at index %d of %s belongs to %s", i, symbol, series[i].Symbol)
			}
		}
	}

	if err := validateAlignment(bars, symbols); err != nil {
		return SimulationOutput{}, err
	}

	for _, symbol := range symbols {
		if err := validateSignals(symbol, signals[symbol], len(bars[symbol])); err != nil {
			return SimulationOutput{}, err
		}
	}

	fee := params.commissionFee()
	n := len(symbols)
	total := len(bars[symbols[0]])

	state := &portfolioState{
		cash:      params.InitialCapital,
		positions: make(map[string]float64, n),
		trades:    make([]types.Trade, 0),
	}
	curve := make([]types.EquityPoint, 0, total)

	for i := 0; i < total; i++ {
		for _, symbol := range symbols {
			if i < leading[symbol] {
				continue
			}

			bar := withSymbol(bars[symbol][i], symbol)
			for _, t := range s.apply(state, bar, signals[symbol][i], n, fee) {
				s.logTrade(t)
			}
		}

		curve = append(curve, types.EquityPoint{
			Time:   bars[symbols[0]][i].Time,
			Equity: s.markToMarket(state, bars, symbols, leading, i),
		})

		if params.Progress != nil {
			if err := params.Progress(i+1, total); err != nil {
				return SimulationOutput{}, errors.Wrap(errors.ErrCodeCallbackFailed, "progress callback failed", err)
			}
		}
	}

	closed := false

	for _, symbol := range symbols {
		if state.positions[symbol] == 0 {
			continue
		}

		bar := withSymbol(bars[symbol][total-1], symbol)
		s.logTrade(state.closePosition(symbol, bar, types.TradeReasonForceClose, fee))

		closed = true
	}

	if closed {
		curve[len(curve)-1].Equity = state.cash
	}

	positions := make(map[string]float64, n)
	for _, symbol := range symbols {
		positions[symbol] = state.positions[symbol]
	}

	return SimulationOutput{
		Trades:       state.trades,
		EquityCurve:  curve,
		FinalCapital: state.cash,
		Positions:    positions,
	}, nil
}

// markToMarket skips symbols still inside their warm-up rows; they hold no position.
func (s *PortfolioSimulator) markToMarket(state *portfolioState, bars map[string][]types.Bar, symbols []string, leading map[string]int, i int) float64 {
	live := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		if i >= leading[symbol] {
			live = append(live, symbol)
		}
	}

	return state.equity(bars, live, i)
}

func withSymbol(bar types.Bar, symbol string) types.Bar {
	bar.Symbol = symbol

	return bar
}

func (s *PortfolioSimulator) logSkip(bar types.Bar, signal types.Signal, cash float64) {
	s.log.Debug("Skipping entry, allocation rounds to zero shares",
		zap.String("symbol", bar.Symbol),
		zap.Time("time", bar.Time),
		zap.String("signal", signal.String()),
		zap.Float64("price", bar.Close),
		zap.Float64("cash", cash),
	)
}

func (s *PortfolioSimulator) logTrade(t types.Trade) {
	s.log.Debug("Trade executed",
		zap.String("symbol", t.Symbol),
		zap.String("type", string(t.Type)),
		zap.Time("time", t.Time),
		zap.Float64("price", t.Price),
		zap.Float64("shares", t.Shares),
		zap.Float64("capital_after", t.CapitalAfter),
		zap.String("reason", t.Reason),
	)
}
