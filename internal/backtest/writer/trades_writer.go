package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// TradesWriter writes the trade log to a parquet file.
type TradesWriter struct {
	table *parquetTable
	seq   int
}

// NewTradesWriter creates a new TradesWriter.
// outputPath is the full path to the parquet file.
func NewTradesWriter(outputPath string) *TradesWriter {
	return &TradesWriter{
		table: newParquetTable(outputPath, "trades", `
			seq INTEGER,
			symbol TEXT,
			type TEXT,
			time TIMESTAMP,
			price DOUBLE,
			shares DOUBLE,
			capital_after DOUBLE,
			reason TEXT
		`, []string{"seq", "symbol", "type", "time", "price", "shares", "capital_after", "reason"}),
		seq: 0,
	}
}

func (w *TradesWriter) Initialize() error {
	return w.table.Initialize()
}

// Write appends trades in emission order. seq keeps that order in the export.
func (w *TradesWriter) Write(trades []types.Trade) error {
	rows := make([][]any, 0, len(trades))

	for _, t := range trades {
		rows = append(rows, []any{w.seq, t.Symbol, string(t.Type), t.Time, round(t.Price), t.Shares, round(t.CapitalAfter), t.Reason})
		w.seq++
	}

	return w.table.Insert(rows)
}

func (w *TradesWriter) Flush() error {
	return w.table.Flush("seq ASC")
}

func (w *TradesWriter) GetTradeCount() (int, error) {
	return w.table.Count()
}

func (w *TradesWriter) GetOutputPath() string {
	return w.table.outputPath
}

func (w *TradesWriter) Close() error {
	return w.table.Close()
}
