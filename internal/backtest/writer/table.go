package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
)

// insertBatchSize bounds the number of rows per INSERT statement.
const insertBatchSize = 500

// parquetTable stages rows in an in-memory DuckDB table and exports them with COPY.
type parquetTable struct {
	db         *sql.DB
	name       string
	columns    []string
	schema     string
	outputPath string
	mu         sync.Mutex
}

func newParquetTable(outputPath, name, schema string, columns []string) *parquetTable {
	return &parquetTable{
		db:         nil,
		name:       name,
		columns:    columns,
		schema:     schema,
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize opens the DuckDB connection and creates the staging table.
func (t *parquetTable) Initialize() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	t.db = db

	_, err = t.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, t.name, t.schema))
	if err != nil {
		t.db.Close()
		t.db = nil

		return fmt.Errorf("failed to create %s table: %w", t.name, err)
	}

	return nil
}

// Insert appends rows. Each row must have one value per column.
func (t *parquetTable) Insert(rows [][]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return fmt.Errorf("writer not initialized")
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))

		query := sq.Insert(t.name).Columns(t.columns...).PlaceholderFormat(sq.Dollar)
		for _, row := range rows[start:end] {
			query = query.Values(row...)
		}

		if _, err := query.RunWith(t.db).Exec(); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.name, err)
		}
	}

	return nil
}

// Flush exports the staged rows to the parquet file, ordered by orderBy.
func (t *parquetTable) Flush(orderBy string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return fmt.Errorf("writer not initialized")
	}

	_, err := t.db.Exec(fmt.Sprintf(`
		COPY (SELECT %s FROM %s ORDER BY %s)
		TO '%s' (FORMAT PARQUET)
	`, strings.Join(t.columns, ", "), t.name, orderBy, t.outputPath))
	if err != nil {
		return fmt.Errorf("failed to export to parquet: %w", err)
	}

	return nil
}

// Count returns the number of staged rows.
func (t *parquetTable) Count() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return 0, fmt.Errorf("writer not initialized")
	}

	var count int
	if err := t.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}

	return count, nil
}

// Close releases database resources.
func (t *parquetTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db != nil {
		if err := t.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}

		t.db = nil
	}

	return nil
}
