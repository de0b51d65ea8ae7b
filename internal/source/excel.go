package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelReader reads XLSX workbooks via excelize. The first row of each
// sheet is treated as the header; header names are sanitized and lowercased
// the same way default table names are.
type ExcelReader struct{}

// NewExcelReader returns the default spreadsheet reader.
func NewExcelReader() *ExcelReader {
	return &ExcelReader{}
}

// ReadWorkbook reads every non-empty sheet of the workbook.
func (r *ExcelReader) ReadWorkbook(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}

		columns := headerColumns(rows[0])
		data := make([][]any, 0, len(rows)-1)
		for _, row := range rows[1:] {
			vals := make([]any, len(row))
			for i, cell := range row {
				vals[i] = cell
			}
			data = append(data, vals)
		}

		sheets = append(sheets, Sheet{
			Name:    name,
			Columns: columns,
			Rows:    data,
		})
	}

	return sheets, nil
}

// headerColumns sanitizes header cells into identifiers, filling blanks and
// deduplicating repeats deterministically.
func headerColumns(header []string) []string {
	seen := make(map[string]bool)
	cols := make([]string, len(header))
	for i, cell := range header {
		name := strings.ToLower(SanitizeIdent(cell))
		if cell == "" || name == "unnamed" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		name = Disambiguate(name, func(n string) bool { return seen[n] })
		seen[name] = true
		cols[i] = name
	}
	return cols
}

var _ SheetReader = (*ExcelReader)(nil)
