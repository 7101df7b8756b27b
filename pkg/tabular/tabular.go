// Package tabular provides the typed in-memory table shared by the
// ingestion, storage, and rendering layers.
package tabular

import (
	"fmt"
	"strconv"
	"time"
)

// Type is the inferred semantic type of a column.
type Type string

const (
	// TypeText is the fallback type for string-valued columns.
	TypeText Type = "text"

	// TypeNumeric covers columns whose every non-null value parses as a number.
	TypeNumeric Type = "numeric"

	// TypeTimestamp covers columns parsed as timestamps.
	TypeTimestamp Type = "timestamp"
)

// Column describes one column of a Table.
type Column struct {
	// Name is the column name, unique within a table.
	Name string

	// Type is the inferred semantic type.
	Type Type
}

// Table is an ordered sequence of named, typed columns with row-major data.
// Cell values are nil (null), string, float64, or time.Time.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// New creates an empty table with the given column names, all typed as text.
func New(names []string) *Table {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Type: TypeText}
	}
	return &Table{Columns: cols}
}

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// AppendRow appends a row. The number of values must match the column count.
func (t *Table) AppendRow(values []any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, values)
	return nil
}

// ColumnIndex returns the index of the named column, or -1 if not present.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// FormatCell renders a cell value as a string. Null renders as the empty
// string; timestamps use a DuckDB-friendly layout; floats drop the trailing
// ".0" for whole numbers so integer columns survive CSV round-trips.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
