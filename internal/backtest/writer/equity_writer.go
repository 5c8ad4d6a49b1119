package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// EquityWriter writes the equity curve to a parquet file.
type EquityWriter struct {
	table *parquetTable
}

func NewEquityWriter(outputPath string) *EquityWriter {
	return &EquityWriter{
		table: newParquetTable(outputPath, "equity", `
			time TIMESTAMP,
			equity DOUBLE
		`, []string{"time", "equity"}),
	}
}

func (w *EquityWriter) Initialize() error {
	return w.table.Initialize()
}

func (w *EquityWriter) Write(curve []types.EquityPoint) error {
	rows := make([][]any, 0, len(curve))
	for _, p := range curve {
		rows = append(rows, []any{p.Time, round(p.Equity)})
	}

	return w.table.Insert(rows)
}

func (w *EquityWriter) Flush() error {
	return w.table.Flush("time ASC")
}

func (w *EquityWriter) GetPointCount() (int, error) {
	return w.table.Count()
}

func (w *EquityWriter) Close() error {
	return w.table.Close()
}
