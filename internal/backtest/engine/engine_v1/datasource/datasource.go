package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type DataSource interface {
	// Initialize loads market data from the given path. Parquet and CSV files are
	// supported; glob patterns load several files into one view.
	Initialize(path string) error
	// Symbols returns the distinct symbols in the data source, sorted.
	Symbols() ([]string, error)
	// ReadBars reads the bars of one symbol ordered by time ascending.
	ReadBars(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Count returns the number of bars of one symbol in the time range
	Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
