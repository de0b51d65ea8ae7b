package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

func sampleResult() *adapter.Result {
	return &adapter.Result{
		Columns: []string{"region", "total"},
		Rows: [][]any{
			{"north", int64(10)},
			{"south", int64(20)},
			{"west", nil},
		},
	}
}

func TestRenderResult_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "table", 0))

	out := buf.String()
	assert.Contains(t, out, "REGION")
	assert.Contains(t, out, "north")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(3 rows)")
}

func TestRenderResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "json", 0))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "north", rows[0]["region"])
	assert.Nil(t, rows[2]["total"])
}

func TestRenderResult_CSV(t *testing.T) {
	res := &adapter.Result{
		Columns: []string{"name", "note"},
		Rows:    [][]any{{"a", `has "quotes", and comma`}},
	}

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, res, "csv", 0))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,note", lines[0])
	assert.Equal(t, `a,"has ""quotes"", and comma"`, lines[1])
}

func TestRenderResult_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "markdown", 0))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "| region | total |", lines[0])
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Equal(t, "| north | 10 |", lines[2])
}

func TestRenderResult_PreviewCap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "csv", 2))

	out := buf.String()
	assert.Contains(t, out, "north")
	assert.Contains(t, out, "south")
	assert.NotContains(t, out, "west")
	assert.Contains(t, out, "(1 more rows)")
}

func TestRenderResult_Empty(t *testing.T) {
	res := &adapter.Result{Columns: []string{"n"}}
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, res, "table", 0))
	assert.Contains(t, buf.String(), "(0 rows)")
}

func TestRenderResult_RaggedRow(t *testing.T) {
	res := &adapter.Result{
		Columns: []string{"a", "b", "c"},
		Rows:    [][]any{{"only"}},
	}
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, res, "csv", 0))
	assert.Contains(t, buf.String(), "only,NULL,NULL")
}
