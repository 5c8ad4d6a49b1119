// Package writer persists finished backtest results to a run folder.
//
// A run folder holds:
//
//	stats.yaml          summary of the run (capital, metrics, strategy, version)
//	trades.parquet      the trade log in emission order
//	equity.parquet      the equity curve
//	round_trips.parquet completed entry/exit pairs
package writer

import (
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	StatsFileName      = "stats.yaml"
	TradesFileName     = "trades.parquet"
	EquityFileName     = "equity.parquet"
	RoundTripsFileName = "round_trips.parquet"
)

// pricePrecision is the number of decimals kept for prices and cash in parquet output.
const pricePrecision = 8

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(pricePrecision).InexactFloat64()
}

// ResultWriter writes a BacktestResult into a folder.
type ResultWriter struct {
	log *logger.Logger
}

func NewResultWriter(log *logger.Logger) *ResultWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ResultWriter{log: log.Named("writer")}
}

// Write creates folder and writes every result file into it.
func (w *ResultWriter) Write(folder string, result types.BacktestResult) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create result folder %s", folder)
	}

	if err := types.WriteBacktestResults(filepath.Join(folder, StatsFileName), []types.BacktestResult{result}); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats", err)
	}

	if err := w.writeTrades(filepath.Join(folder, TradesFileName), result.Trades); err != nil {
		return err
	}

	if err := w.writeEquity(filepath.Join(folder, EquityFileName), result.EquityCurve); err != nil {
		return err
	}

	if err := w.writeRoundTrips(filepath.Join(folder, RoundTripsFileName), result.RoundTrips); err != nil {
		return err
	}

	w.log.Debug("Results written",
		zap.String("folder", folder),
		zap.String("run_id", result.ID),
		zap.Int("trades", len(result.Trades)),
		zap.Int("equity_points", len(result.EquityCurve)),
	)

	return nil
}

func (w *ResultWriter) writeTrades(path string, trades []types.Trade) error {
	tw := NewTradesWriter(path)
	if err := tw.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to initialize trades writer", err)
	}
	defer tw.Close()

	if err := tw.Write(trades); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write trades", err)
	}

	if err := tw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to flush trades", err)
	}

	return nil
}

func (w *ResultWriter) writeEquity(path string, curve []types.EquityPoint) error {
	ew := NewEquityWriter(path)
	if err := ew.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to initialize equity writer", err)
	}
	defer ew.Close()

	if err := ew.Write(curve); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write equity curve", err)
	}

	if err := ew.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to flush equity curve", err)
	}

	return nil
}

func (w *ResultWriter) writeRoundTrips(path string, trips []types.RoundTrip) error {
	rw := NewRoundTripsWriter(path)
	if err := rw.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to initialize round trips writer", err)
	}
	defer rw.Close()

	if err := rw.Write(trips); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write round trips", err)
	}

	if err := rw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to flush round trips", err)
	}

	return nil
}
