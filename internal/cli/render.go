package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

// renderResult writes a result snapshot in the requested format. previewRows
// caps the rows shown (0 shows everything); the cap applies to every format
// so piped output matches what the terminal showed.
func renderResult(w io.Writer, res *adapter.Result, format string, previewRows int) error {
	rows := res.Rows
	hidden := 0
	if previewRows > 0 && len(rows) > previewRows {
		hidden = len(rows) - previewRows
		rows = rows[:previewRows]
	}

	var err error
	switch format {
	case "json":
		err = renderJSON(w, res.Columns, rows)
	case "csv":
		err = renderCSV(w, res.Columns, rows)
	case "md", "markdown":
		err = renderMarkdown(w, res.Columns, rows)
	default:
		err = renderTable(w, res.Columns, rows)
	}
	if err != nil {
		return err
	}

	if hidden > 0 {
		_, _ = fmt.Fprintf(w, "(%d more rows)\n", hidden)
	}
	return nil
}

func renderTable(w io.Writer, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range rows {
		row := make(table.Row, len(cols))
		for i := range cols {
			row[i] = formatValue(cell(r, i))
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, cols []string, rows [][]any) error {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		m := make(map[string]any, len(cols))
		for i, col := range cols {
			m[col] = cell(r, i)
		}
		out = append(out, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, cols []string, rows [][]any) error {
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))
	for _, r := range rows {
		values := make([]string, len(cols))
		for i := range cols {
			values[i] = escapeCSV(formatValue(cell(r, i)))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, r := range rows {
		values := make([]string, len(cols))
		for i := range cols {
			values[i] = formatValue(cell(r, i))
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

// cell tolerates ragged rows from loosely typed sources.
func cell(row []any, i int) any {
	if i < len(row) {
		return row[i]
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

// renderColumns shows DESCRIBE-style column metadata.
func renderColumns(w io.Writer, name string, cols []adapter.Column) {
	_, _ = fmt.Fprintf(w, "Table: %s\n", name)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable"})
	for _, col := range cols {
		nullable := "YES"
		if !col.Nullable {
			nullable = "NO"
		}
		t.AppendRow(table.Row{col.Name, col.Type, nullable})
	}
	t.Render()
}
