package writer

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBWriter stages bars in an in-memory DuckDB table inside one transaction and
// exports them on Finalize. A ".csv" output path is written as CSV with a header,
// anything else as Parquet.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	rows       int
	log        *logger.Logger
}

// NewDuckDBWriter creates a new DuckDBWriter for the given output file.
func NewDuckDBWriter(outputPath string, log *logger.Logger) BarWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBWriter{
		outputPath: outputPath,
		log:        log.Named("bar_writer"),
	}
}

// Initialize opens the database, creates the table, begins a transaction and
// prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write validates and inserts a single bar within the open transaction.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeQueryFailed, "writer not initialized or statement is nil")
	}

	if err := bar.Validate(); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidBar, err, "refusing to write invalid %s bar at %s", bar.Symbol, bar.Time)
	}

	_, err := w.stmt.Exec(bar.Time, bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert bar", err)
	}

	w.rows++

	return nil
}

// Finalize commits the transaction and exports the rows ordered by symbol and time.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeQueryFailed, "writer not initialized or transaction is nil")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	format := "(FORMAT PARQUET)"
	if strings.EqualFold(filepath.Ext(w.outputPath), ".csv") {
		format = "(FORMAT CSV, HEADER)"
	}

	escaped := strings.ReplaceAll(w.outputPath, "'", "''")

	// DuckDB's COPY does not accept a bound parameter for the file name
	query := fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY symbol, time) TO '%s' %s`, escaped, format)
	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to export bars to %s", w.outputPath)
	}

	w.log.Info("Exported bars",
		zap.String("path", w.outputPath),
		zap.Int("rows", w.rows),
	)

	return w.outputPath, nil
}

// Close releases the statement, rolls back an unfinished transaction and closes the database.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.log.Warn("Failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	return stderrors.Join(closeErrors...)
}

// GetOutputPath returns the configured output file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

// WriteBars writes every bar through w and finalizes it. The writer is always closed.
func WriteBars(w BarWriter, bars []types.Bar) (string, error) {
	defer w.Close()

	if err := w.Initialize(); err != nil {
		return "", err
	}

	for _, bar := range bars {
		if err := w.Write(bar); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}
