// Package adapter provides the query engine boundary for SheetQL.
// The session core talks to the engine exclusively through the Adapter
// interface; results cross the boundary as fully materialized snapshots
// owned by the caller.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
)

// Config holds the configuration for connecting to the engine.
type Config struct {
	// Path is the database location. Empty or ":memory:" selects an
	// in-memory database.
	Path string

	// MemoryLimit is passed to the engine as its memory budget
	// (e.g. "75%", "4GB"). Empty keeps the engine default.
	MemoryLimit string

	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Column describes one column of a relation.
type Column struct {
	// Name is the column name
	Name string

	// Type is the data type of the column
	Type string

	// Nullable indicates whether the column allows NULL values
	Nullable bool

	// Position is the ordinal position of the column in the relation
	Position int
}

// Result is a materialized result set: the snapshot form that crosses the
// engine boundary. Rows hold scalar values as returned by the driver with
// []byte normalized to string.
type Result struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows in the snapshot.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Clone returns a deep copy of the result. Staging relies on this to keep
// snapshots immutable once taken.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{
		Columns: make([]string, len(r.Columns)),
		Rows:    make([][]any, len(r.Rows)),
	}
	copy(out.Columns, r.Columns)
	for i, row := range r.Rows {
		cp := make([]any, len(row))
		copy(cp, row)
		out.Rows[i] = cp
	}
	return out
}

// EngineError wraps a failure reported by the query engine. The message is
// opaque to the core and surfaced verbatim to the user.
type EngineError struct {
	SQL string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Adapter defines the interface the session core uses to run SQL and manage
// relations derived from loaded files.
type Adapter interface {
	// Connect establishes a connection to the engine.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement and materializes the full result set.
	Query(ctx context.Context, sql string) (*Result, error)

	// CreateFileView creates or replaces a named view over a data file.
	// The reader function is chosen by format (read_csv_auto, read_json_auto,
	// or a direct scan for parquet).
	CreateFileView(ctx context.Context, name, path, format string) error

	// CreateTableFromRows materializes an in-memory table, used for formats
	// the engine cannot scan natively (spreadsheet sheets).
	CreateTableFromRows(ctx context.Context, name string, columns []string, rows [][]any) error

	// RenameRelation renames a view or table.
	RenameRelation(ctx context.Context, oldName, newName string) error

	// Tables lists user-visible relation names.
	Tables(ctx context.Context) ([]string, error)

	// DescribeTable returns column metadata for a relation.
	DescribeTable(ctx context.Context, table string) ([]Column, error)
}
