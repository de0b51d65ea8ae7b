package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

func sampleResults() []NamedResult {
	return []NamedResult{
		{
			Name: "summary",
			Result: &adapter.Result{
				Columns: []string{"region", "total"},
				Rows: [][]any{
					{"east", int64(10)},
					{"west", int64(20)},
				},
			},
		},
		{
			Name: "cnt",
			Result: &adapter.Result{
				Columns: []string{"n"},
				Rows:    [][]any{{int64(2)}},
			},
		},
	}
}

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteReport(t *testing.T) {
	w := NewExcelWriter(nil)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, w.WriteReport(path, sampleResults()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"summary", "cnt"}, f.GetSheetList())

	rows := readSheet(t, path, "summary")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"region", "total"}, rows[0])
	assert.Equal(t, []string{"east", "10"}, rows[1])
	assert.Equal(t, []string{"west", "20"}, rows[2])
}

func TestWriteReport_IdempotentContent(t *testing.T) {
	w := NewExcelWriter(nil)
	dir := t.TempDir()
	first := filepath.Join(dir, "one.xlsx")
	second := filepath.Join(dir, "two.xlsx")

	results := sampleResults()
	require.NoError(t, w.WriteReport(first, results))
	require.NoError(t, w.WriteReport(second, results))

	for _, sheet := range []string{"summary", "cnt"} {
		assert.Equal(t, readSheet(t, first, sheet), readSheet(t, second, sheet),
			"sheet %s differs between identical exports", sheet)
	}
}

func TestWriteReport_DoesNotMutateSnapshot(t *testing.T) {
	w := NewExcelWriter(nil)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	results := sampleResults()
	before := results[0].Result.Clone()

	require.NoError(t, w.WriteReport(path, results))
	assert.Equal(t, before, results[0].Result)
}

func TestWriteReport_Empty(t *testing.T) {
	w := NewExcelWriter(nil)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	err := w.WriteReport(path, nil)
	require.Error(t, err)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, path, writeErr.Path)
}

func TestWriteReport_LongSheetNameTruncated(t *testing.T) {
	w := NewExcelWriter(nil)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	long := "a_very_long_sheet_name_that_exceeds_the_xlsx_limit"
	results := []NamedResult{{
		Name:   long,
		Result: &adapter.Result{Columns: []string{"x"}, Rows: [][]any{{"1"}}},
	}}

	require.NoError(t, w.WriteReport(path, results))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.Equal(t, long[:31], sheets[0])
}
