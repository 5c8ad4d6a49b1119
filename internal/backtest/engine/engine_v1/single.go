package engine

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// SingleSymbolSimulator walks one bar series holding at most one long position.
// It keeps no state between runs and is safe for concurrent use.
type SingleSymbolSimulator struct {
	log *logger.Logger
}

func NewSingleSymbolSimulator(log *logger.Logger) *SingleSymbolSimulator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SingleSymbolSimulator{log: log.Named("single")}
}

// singleState is threaded through step explicitly; the simulator never stores it.
type singleState struct {
	cash     float64
	position float64
}

func (s singleState) equity(price float64) float64 {
	return s.cash + s.position*price
}

// step applies one signal at one bar's close.
func (s *SingleSymbolSimulator) step(state singleState, bar types.Bar, signal types.Signal, fee commission_fee.CommissionFee) (singleState, optional.Option[types.Trade]) {
	switch {
	case signal == types.SignalBuy && state.position == 0:
		unitCost := commission_fee.BuyPrice(fee, bar.Close)
		shares := math.Floor(state.cash / unitCost)

		if shares <= 0 {
			s.log.Debug("Skipping buy, capital too small",
				zap.String("symbol", bar.Symbol),
				zap.Time("time", bar.Time),
				zap.Float64("price", bar.Close),
				zap.Float64("cash", state.cash),
			)

			return state, optional.None[types.Trade]()
		}

		state.cash -= shares * unitCost
		state.position = shares

		return state, optional.Some(types.Trade{
			Symbol:       bar.Symbol,
			Type:         types.TradeTypeBuy,
			Time:         bar.Time,
			Price:        bar.Close,
			Shares:       shares,
			CapitalAfter: state.cash,
			Reason:       types.TradeReasonSignal,
		})

	case signal == types.SignalSell && state.position > 0:
		return sellAll(state, bar, types.TradeReasonSignal, fee)
	}

	return state, optional.None[types.Trade]()
}

func sellAll(state singleState, bar types.Bar, reason string, fee commission_fee.CommissionFee) (singleState, optional.Option[types.Trade]) {
	shares := state.position
	state.cash += shares * commission_fee.SellPrice(fee, bar.Close)
	state.position = 0

	return state, optional.Some(types.Trade{
		Symbol:       bar.Symbol,
		Type:         types.TradeTypeSell,
		Time:         bar.Time,
		Price:        bar.Close,
		Shares:       shares,
		CapitalAfter: state.cash,
		Reason:       reason,
	})
}

// Run simulates the series. signals[i] is acted on at bars[i].Close. Any open
// position is sold at the last close, and the last equity point is the settled cash.
func (s *SingleSymbolSimulator) Run(bars []types.Bar, signals []types.Signal, params SimulationParams) (SimulationOutput, error) {
	if err := validateParams(params); err != nil {
		return SimulationOutput{}, err
	}

	symbol := ""
	if len(bars) > 0 {
		symbol = bars[0].Symbol
	}

	leading, err := validateBars(symbol, bars)
	if err != nil {
		return SimulationOutput{}, err
	}

	if err := validateSignals(symbol, signals, len(bars)); err != nil {
		return SimulationOutput{}, err
	}

	fee := params.commissionFee()
	state := singleState{cash: params.InitialCapital}
	trades := make([]types.Trade, 0)
	curve := make([]types.EquityPoint, 0, len(bars))

	for i, bar := range bars {
		if i >= leading {
			var trade optional.Option[types.Trade]

			state, trade = s.step(state, bar, signals[i], fee)
			if trade.IsSome() {
				t := trade.Unwrap()
				trades = append(trades, t)
				s.logTrade(t)
			}

			curve = append(curve, types.EquityPoint{Time: bar.Time, Equity: state.equity(bar.Close)})
		} else {
			curve = append(curve, types.EquityPoint{Time: bar.Time, Equity: state.cash})
		}

		if params.Progress != nil {
			if err := params.Progress(i+1, len(bars)); err != nil {
				return SimulationOutput{}, errors.Wrap(errors.ErrCodeCallbackFailed, "progress callback failed", err)
			}
		}
	}

	last := bars[len(bars)-1]
	if state.position > 0 {
		var trade optional.Option[types.Trade]

		state, trade = sellAll(state, last, types.TradeReasonForceClose, fee)
		trades = append(trades, trade.Unwrap())
		s.logTrade(trade.Unwrap())

		curve[len(curve)-1].Equity = state.cash
	}

	return SimulationOutput{
		Trades:       trades,
		EquityCurve:  curve,
		FinalCapital: state.cash,
		Positions:    map[string]float64{symbol: state.position},
	}, nil
}

func (s *SingleSymbolSimulator) logTrade(t types.Trade) {
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
