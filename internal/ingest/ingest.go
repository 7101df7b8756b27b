// Package ingest reads uploaded CSV and Excel files into typed tables.
//
// Loading runs in three passes: missing-value normalization, per-column type
// inference, and serialization to a fully-quoted temporary CSV that the
// store adapter re-reads with its own schema detection. The inference order
// matters: columns whose name contains "date" are parsed as timestamps
// before any numeric conversion is considered, and numeric conversion is
// all-or-nothing per column.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/askdb/pkg/tabular"
)

// missingTokens are the literal values treated as nulls regardless of
// column. Matching is exact and case-sensitive.
var missingTokens = map[string]bool{
	"NA":      true,
	"N/A":     true,
	"missing": true,
}

// timestampLayouts are tried in order when parsing date-named columns.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
}

// Result is the product of one successful load: the typed table, the path
// of the quoted CSV handed to the store adapter, and the ordered column
// names from the source file.
type Result struct {
	Table    *tabular.Table
	TempPath string
	Columns  []string
}

// Loader parses uploaded files into typed tables.
type Loader struct {
	logger *slog.Logger
}

// New creates a Loader. A nil logger discards output.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger}
}

// Load parses raw file bytes according to the declared extension ("csv" or
// "xlsx", with or without a leading dot), infers column types, and writes
// the quoted intermediate CSV. Any parse failure is reported as an
// IngestionError; unknown extensions as UnsupportedFormatError.
func (l *Loader) Load(data []byte, extension string) (*Result, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))

	var header []string
	var records [][]string
	var err error

	switch ext {
	case "csv":
		header, records, err = parseCSV(data)
	case "xlsx":
		header, records, err = parseXLSX(data)
	default:
		return nil, &UnsupportedFormatError{Extension: extension}
	}
	if err != nil {
		return nil, &IngestionError{Cause: err}
	}

	tbl := buildTable(header, records)

	tempPath, err := writeQuotedCSV(tbl)
	if err != nil {
		return nil, &IngestionError{Cause: err}
	}

	l.logger.Debug("file ingested",
		"columns", tbl.NumColumns(), "rows", tbl.NumRows(), "temp_path", tempPath)

	return &Result{
		Table:    tbl,
		TempPath: tempPath,
		Columns:  tbl.ColumnNames(),
	}, nil
}

// LoadFile reads a file from disk and loads it using its extension.
func (l *Loader) LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IngestionError{Cause: err}
	}
	return l.Load(data, filepath.Ext(path))
}

func parseCSV(data []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("file contains no header row")
	}
	return rows[0], rows[1:], nil
}

func parseXLSX(data []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("workbook contains no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s contains no header row", sheet)
	}

	header := rows[0]
	records := rows[1:]

	// Excel rows may come back ragged; pad to the header width.
	for i, rec := range records {
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records[i] = rec[:len(header)]
	}

	return header, records, nil
}

// buildTable normalizes missing values and infers column types.
func buildTable(header []string, records [][]string) *tabular.Table {
	tbl := tabular.New(header)
	for _, rec := range records {
		row := make([]any, len(header))
		for i := range header {
			row[i] = normalizeValue(rec[i])
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	for i := range tbl.Columns {
		inferColumn(tbl, i)
	}
	return tbl
}

// normalizeValue converts missing-value markers and empty cells to null and
// doubles embedded quotes in surviving text, preparing values for the
// quoted CSV hand-off.
func normalizeValue(raw string) any {
	if raw == "" || missingTokens[raw] {
		return nil
	}
	return strings.ReplaceAll(raw, `"`, `""`)
}

// inferColumn applies type inference to one column in place.
// Date-named columns parse per value with failures becoming null; every
// other textual column converts to numeric only if all non-null values
// parse, and is left unchanged otherwise.
func inferColumn(tbl *tabular.Table, col int) {
	if strings.Contains(strings.ToLower(tbl.Columns[col].Name), "date") {
		for _, row := range tbl.Rows {
			row[col] = coerceTimestamp(row[col])
		}
		tbl.Columns[col].Type = tabular.TypeTimestamp
		return
	}

	parsed := make([]any, len(tbl.Rows))
	seen := false
	for i, row := range tbl.Rows {
		v := row[col]
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			// Already typed from the raw parse; leave the column as-is.
			return
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return
		}
		parsed[i] = n
		seen = true
	}
	if !seen {
		// All-null columns stay textual.
		return
	}

	for i, row := range tbl.Rows {
		if row[col] != nil {
			row[col] = parsed[i]
		}
	}
	tbl.Columns[col].Type = tabular.TypeNumeric
}

// coerceTimestamp parses a value as a timestamp, returning nil when no
// layout matches. It never fails.
func coerceTimestamp(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return nil
}

// writeQuotedCSV serializes the table to a temporary file with every field
// quoted, UTF-8, comma-delimited, header row first. This is the hand-off
// contract with the store adapter.
func writeQuotedCSV(tbl *tabular.Table) (string, error) {
	f, err := os.CreateTemp("", "askdb-upload-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	writeQuotedRecord(&sb, tbl.ColumnNames())
	for _, row := range tbl.Rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = tabular.FormatCell(v)
		}
		writeQuotedRecord(&sb, fields)
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}

// writeQuotedRecord writes one record with full field quoting. Text values
// already carry doubled interior quotes from normalization; header names
// and formatted cells from typed columns never contain quotes.
func writeQuotedRecord(sb *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(field)
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}
