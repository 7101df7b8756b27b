// Package output renders query results and status messages for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/askdb/pkg/tabular"
)

// Format selects how result tables are rendered.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

// ValidFormat reports whether f is a known format name.
func ValidFormat(f string) bool {
	switch Format(f) {
	case FormatTable, FormatJSON, FormatCSV, FormatMarkdown, "markdown":
		return true
	}
	return false
}

// Renderer writes results to out and feedback to errW.
type Renderer struct {
	out    io.Writer
	errW   io.Writer
	format Format
	styles *Styles
}

// NewRenderer creates a renderer with the given output format.
func NewRenderer(out, errW io.Writer, format Format) *Renderer {
	return &Renderer{
		out:    out,
		errW:   errW,
		format: format,
		styles: DefaultStyles(),
	}
}

// Styles returns the renderer's style set.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// SetFormat switches the result format.
func (r *Renderer) SetFormat(format Format) {
	r.format = format
}

// Println writes a line to the primary writer.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

// Printf writes formatted text to the primary writer.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Errorf writes a styled error line to the error writer.
func (r *Renderer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(r.errW, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Warnf writes a styled warning line to the error writer.
func (r *Renderer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(r.errW, r.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Successf writes a styled success line to the primary writer.
func (r *Renderer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// SQL echoes an executed statement for user transparency.
func (r *Renderer) SQL(sqlText string) {
	_, _ = fmt.Fprintln(r.out, r.styles.SQL.Render(sqlText))
}

// RenderTable writes a result table in the renderer's format.
func (r *Renderer) RenderTable(tbl *tabular.Table) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(tbl)
	case FormatCSV:
		return r.renderCSV(tbl)
	case FormatMarkdown, "markdown":
		return r.renderMarkdown(tbl)
	default:
		return r.renderPretty(tbl)
	}
}

func (r *Renderer) renderPretty(tbl *tabular.Table) error {
	if tbl.NumRows() == 0 {
		_, _ = fmt.Fprintln(r.out, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, tbl.NumColumns())
	for i, col := range tbl.Columns {
		headerRow[i] = col.Name
	}
	t.AppendHeader(headerRow)

	for _, row := range tbl.Rows {
		pretty := make(table.Row, len(row))
		for i, v := range row {
			pretty[i] = formatValue(v)
		}
		t.AppendRow(pretty)
	}

	t.Render()
	_, _ = fmt.Fprintf(r.out, "(%d rows)\n", tbl.NumRows())
	return nil
}

func (r *Renderer) renderJSON(tbl *tabular.Table) error {
	names := tbl.ColumnNames()
	results := make([]map[string]any, 0, tbl.NumRows())
	for _, row := range tbl.Rows {
		m := make(map[string]any, len(names))
		for i, name := range names {
			m[name] = row[i]
		}
		results = append(results, m)
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func (r *Renderer) renderCSV(tbl *tabular.Table) error {
	_, _ = fmt.Fprintln(r.out, strings.Join(tbl.ColumnNames(), ","))
	for _, row := range tbl.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(r.out, strings.Join(values, ","))
	}
	return nil
}

func (r *Renderer) renderMarkdown(tbl *tabular.Table) error {
	cols := tbl.ColumnNames()
	if tbl.NumRows() == 0 {
		_, _ = fmt.Fprintln(r.out, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(r.out, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(r.out, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range tbl.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = formatValue(v)
		}
		_, _ = fmt.Fprintf(r.out, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
