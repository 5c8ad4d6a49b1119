package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// RoundTripsWriter writes completed round trips to a parquet file.
type RoundTripsWriter struct {
	table *parquetTable
}

func NewRoundTripsWriter(outputPath string) *RoundTripsWriter {
	return &RoundTripsWriter{
		table: newParquetTable(outputPath, "round_trips", `
			symbol TEXT,
			side TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			return_pct DOUBLE,
			shares DOUBLE,
			won BOOLEAN
		`, []string{"symbol", "side", "entry_time", "exit_time", "entry_price", "exit_price", "return_pct", "shares", "won"}),
	}
}

func (w *RoundTripsWriter) Initialize() error {
	return w.table.Initialize()
}

func (w *RoundTripsWriter) Write(trips []types.RoundTrip) error {
	rows := make([][]any, 0, len(trips))
	for _, r := range trips {
		rows = append(rows, []any{r.Symbol, string(r.Side), r.EntryTime, r.ExitTime, round(r.EntryPrice), round(r.ExitPrice), round(r.ReturnPct), r.Shares, r.Won})
	}

	return w.table.Insert(rows)
}

func (w *RoundTripsWriter) Flush() error {
	return w.table.Flush("exit_time ASC, symbol ASC")
}

func (w *RoundTripsWriter) GetRoundTripCount() (int, error) {
	return w.table.Count()
}

func (w *RoundTripsWriter) Close() error {
	return w.table.Close()
}
