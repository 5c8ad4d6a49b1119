package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// BarWriter defines the interface for writing bars to a file the DuckDB data source can read.
type BarWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.Bar) error
	// Finalize completes the writing process (commits the transaction and exports the file).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
