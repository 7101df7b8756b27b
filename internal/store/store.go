// Package store wraps an embedded DuckDB database as the session's
// queryable relational store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/askdb/pkg/tabular"
)

// ExecutionError carries the engine's verbatim message for a rejected or
// failed statement.
type ExecutionError struct {
	SQL   string
	Cause error
}

func (e *ExecutionError) Error() string {
	return e.Cause.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// ColumnMetadata describes one column of a registered table.
type ColumnMetadata struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Store is a single-connection DuckDB store. It is not safe for concurrent
// use; the session drives it strictly sequentially.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to DuckDB at the given path. Use ":memory:" (or an empty
// path) for an in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	logger.Debug("store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateTableFromCSV registers the CSV file as a table, inferring the schema
// with DuckDB's own CSV reader. An existing table of the same name is
// replaced wholesale.
func (s *Store) CreateTableFromCSV(ctx context.Context, tableName, csvPath string) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(csvPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	stmt := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		tableName,
		strings.ReplaceAll(absPath, "'", "''"),
	)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}

	s.logger.Debug("table created from CSV", "table", tableName, "path", absPath)
	return nil
}

// Query executes SQL verbatim and materializes the result. Engine failures
// come back as *ExecutionError with the engine's message intact.
func (s *Store) Query(ctx context.Context, sqlText string) (*tabular.Table, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &ExecutionError{SQL: sqlText, Cause: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{SQL: sqlText, Cause: err}
	}

	tbl := tabular.New(cols)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecutionError{SQL: sqlText, Cause: err}
		}
		for i, v := range values {
			// Convert []byte to string for readability.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		tbl.Rows = append(tbl.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{SQL: sqlText, Cause: err}
	}

	return tbl, nil
}

// TableMetadata returns column metadata for a registered table, in ordinal
// order.
func (s *Store) TableMetadata(ctx context.Context, tableName string) ([]ColumnMetadata, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := `
		SELECT column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position
	`
	rows, err := s.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnMetadata
	for rows.Next() {
		var col ColumnMetadata
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", tableName)
	}

	return columns, nil
}
