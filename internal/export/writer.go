// Package export implements the spreadsheet writer boundary: staged result
// snapshots are rendered into a styled XLSX report.
package export

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

// NamedResult pairs a staged snapshot with its export sheet name.
type NamedResult struct {
	Name   string
	Result *adapter.Result
}

// WriteError reports a failed export. It is always surfaced as the
// terminating condition of a run.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer renders an ordered set of named results into a report file.
type Writer interface {
	WriteReport(path string, results []NamedResult) error
}

// Excel sheet names are capped by the format itself.
const maxSheetName = 31

const (
	headerFillColor = "4F81BD"
	headerFontColor = "FFFFFF"
	columnWidth     = 20
)

// ExcelWriter writes styled XLSX workbooks: bold white headers on a blue
// fill, fixed column widths, and an auto-filter over the data range.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates the default report writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExcelWriter{logger: logger}
}

// WriteReport writes one sheet per result, in staging order. The input
// snapshots are read only; writing the same staged set twice produces
// identical tabular content.
func (w *ExcelWriter) WriteReport(path string, results []NamedResult) error {
	if len(results) == 0 {
		return &WriteError{Path: path, Err: fmt.Errorf("nothing to export")}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: headerFontColor},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
	})
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	for i, result := range results {
		sheet := sheetName(result.Name, i)
		if i == 0 {
			// Reuse the default sheet so the workbook has no empty leftover.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return &WriteError{Path: path, Err: err}
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return &WriteError{Path: path, Err: err}
		}

		if err := w.writeSheet(f, sheet, result.Result, headerStyle); err != nil {
			return &WriteError{Path: path, Err: err}
		}

		w.logger.Debug("sheet written", "sheet", sheet, "rows", result.Result.RowCount())
	}

	if err := f.SaveAs(path); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	return nil
}

func (w *ExcelWriter) writeSheet(f *excelize.File, sheet string, result *adapter.Result, headerStyle int) error {
	header := make([]any, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range result.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := make([]any, len(row))
		copy(vals, row)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}

	if len(result.Columns) == 0 {
		return nil
	}

	lastCol, err := excelize.ColumnNumberToName(len(result.Columns))
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, columnWidth); err != nil {
		return err
	}

	filterRange := fmt.Sprintf("A1:%s%d", lastCol, len(result.Rows)+1)
	return f.AutoFilter(sheet, filterRange, nil)
}

// sheetName clamps a name to the XLSX limit, falling back to a positional
// name when empty.
func sheetName(name string, index int) string {
	if name == "" {
		name = fmt.Sprintf("result_%d", index+1)
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

var _ Writer = (*ExcelWriter)(nil)
