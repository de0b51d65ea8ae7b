package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

// FakeAdapter is an in-memory adapter.Adapter for tests. Queries resolve
// against scripted results keyed by exact SQL text; relations created
// through the adapter are tracked so renames and listings behave like the
// real engine.
type FakeAdapter struct {
	// Results maps exact SQL text to the snapshot to return.
	Results map[string]*adapter.Result

	// Errors maps exact SQL text to an error returned instead of a result.
	Errors map[string]error

	// FailLoads maps file paths to an error returned by CreateFileView.
	FailLoads map[string]error

	// ViewColumns maps file paths to the column names their view exposes.
	ViewColumns map[string][]string

	// Relations tracks relation name -> columns, mirroring engine state.
	Relations map[string][]string

	// ExecLog records every Exec statement in order.
	ExecLog []string

	// QueryLog records every Query statement in order.
	QueryLog []string

	closed bool
}

// NewFakeAdapter returns an empty, connected fake.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		Results:     make(map[string]*adapter.Result),
		Errors:      make(map[string]error),
		FailLoads:   make(map[string]error),
		ViewColumns: make(map[string][]string),
		Relations:   make(map[string][]string),
	}
}

// ScriptResult registers a snapshot for the given SQL.
func (f *FakeAdapter) ScriptResult(sql string, columns []string, rows ...[]any) {
	f.Results[sql] = &adapter.Result{Columns: columns, Rows: rows}
}

func (f *FakeAdapter) Connect(context.Context, adapter.Config) error { return nil }

func (f *FakeAdapter) Close() error {
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeAdapter) Closed() bool { return f.closed }

func (f *FakeAdapter) Exec(_ context.Context, sql string) error {
	f.ExecLog = append(f.ExecLog, sql)
	if err, ok := f.Errors[sql]; ok {
		return &adapter.EngineError{SQL: sql, Err: err}
	}
	return nil
}

func (f *FakeAdapter) Query(ctx context.Context, sql string) (*adapter.Result, error) {
	f.QueryLog = append(f.QueryLog, sql)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.Errors[sql]; ok {
		return nil, &adapter.EngineError{SQL: sql, Err: err}
	}
	if res, ok := f.Results[sql]; ok {
		return res.Clone(), nil
	}
	return &adapter.Result{Columns: []string{"result"}}, nil
}

func (f *FakeAdapter) CreateFileView(_ context.Context, name, path, _ string) error {
	if err, ok := f.FailLoads[path]; ok {
		return err
	}
	cols, ok := f.ViewColumns[path]
	if !ok {
		cols = []string{"col1"}
	}
	f.Relations[name] = cols
	return nil
}

func (f *FakeAdapter) CreateTableFromRows(_ context.Context, name string, columns []string, _ [][]any) error {
	f.Relations[name] = columns
	return nil
}

func (f *FakeAdapter) RenameRelation(_ context.Context, oldName, newName string) error {
	for key, cols := range f.Relations {
		if strings.EqualFold(key, oldName) {
			delete(f.Relations, key)
			f.Relations[newName] = cols
			return nil
		}
	}
	return &adapter.EngineError{Err: fmt.Errorf("relation %s does not exist", oldName)}
}

func (f *FakeAdapter) Tables(context.Context) ([]string, error) {
	names := make([]string, 0, len(f.Relations))
	for name := range f.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeAdapter) DescribeTable(_ context.Context, table string) ([]adapter.Column, error) {
	for key, cols := range f.Relations {
		if strings.EqualFold(key, table) {
			out := make([]adapter.Column, len(cols))
			for i, c := range cols {
				out[i] = adapter.Column{Name: c, Type: "VARCHAR", Nullable: true, Position: i + 1}
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("table %s not found", table)
}

var _ adapter.Adapter = (*FakeAdapter)(nil)
