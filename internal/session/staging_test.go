package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

func snapshot() *adapter.Result {
	return &adapter.Result{
		Columns: []string{"n"},
		Rows:    [][]any{{int64(1)}, {int64(2)}},
	}
}

func TestStagingArea_SnapshotIsImmutable(t *testing.T) {
	area := NewStagingArea()
	res := snapshot()

	staged := area.Stage(&Entry{Index: 1, Text: "SELECT n"}, res, "numbers")

	// Mutating the original result must not reach the staged snapshot.
	res.Rows[0][0] = int64(99)
	assert.Equal(t, int64(1), staged.Snapshot.Rows[0][0])
}

func TestStagingArea_GeneratedNames(t *testing.T) {
	area := NewStagingArea()

	a := area.Stage(&Entry{Index: 1}, snapshot(), "")
	b := area.Stage(&Entry{Index: 2}, snapshot(), "")

	assert.Equal(t, "result_1", a.ExportName)
	assert.Equal(t, "result_2", b.ExportName)
}

func TestStagingArea_SameNameReplacesInPlace(t *testing.T) {
	area := NewStagingArea()
	area.Stage(&Entry{Index: 1, Text: "SELECT 1"}, snapshot(), "report")
	area.Stage(&Entry{Index: 2, Text: "SELECT 2"}, snapshot(), "other")
	area.Stage(&Entry{Index: 3, Text: "SELECT 3"}, snapshot(), "report")

	staged := area.List()
	require.Len(t, staged, 2)
	assert.Equal(t, "report", staged[0].ExportName)
	assert.Equal(t, 3, staged[0].Query.Index, "replacement keeps position but takes the new query")
	assert.Equal(t, "other", staged[1].ExportName)
}

func TestStagingArea_OrderAndClear(t *testing.T) {
	area := NewStagingArea()
	area.Stage(&Entry{Index: 1}, snapshot(), "one")
	area.Stage(&Entry{Index: 2}, snapshot(), "two")
	area.Stage(&Entry{Index: 3}, snapshot(), "three")

	var names []string
	for _, s := range area.List() {
		names = append(names, s.ExportName)
	}
	assert.Equal(t, []string{"one", "two", "three"}, names)

	area.Clear()
	assert.Zero(t, area.Len())
}
