package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

// DataSource describes one loaded file (or one sheet of a workbook). It is
// immutable once registered; renames change the alias map, not this entity.
type DataSource struct {
	// Path is the resolved filesystem location.
	Path string

	// Format is the inferred file format.
	Format Format

	// Sheet is the originating sheet name for workbook sources.
	Sheet string

	// DefaultName is the deterministic table name derived from path
	// (and sheet), after collision disambiguation.
	DefaultName string
}

// UnsupportedFormatError is returned when a file extension maps to no
// known reader.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Path)
}

// ParseError is returned when a file exists but cannot be read as its
// inferred format.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Sheet is one tabular sheet read from a workbook.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// SheetReader reads all sheets of a spreadsheet file. The concrete reader
// is injected at startup (capability selection stays outside the core).
type SheetReader interface {
	ReadWorkbook(path string) ([]Sheet, error)
}

// Namespace answers whether a table name is already claimed. The alias
// manager is the authority; the registry only consults it.
type Namespace interface {
	Taken(name string) bool
}

// Registry tracks loaded sources and creates their backing relations.
type Registry struct {
	db     adapter.Adapter
	sheets SheetReader
	ns     Namespace
	logger *slog.Logger

	sources []*DataSource
	schema  map[string][]string // relation name -> column names, for completion
}

// NewRegistry creates a registry. sheets may be nil when spreadsheet
// support is unavailable; loading an Excel file then fails with a clear
// error instead of branching on capability inside the load path.
func NewRegistry(db adapter.Adapter, sheets SheetReader, ns Namespace, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		db:     db,
		sheets: sheets,
		ns:     ns,
		logger: logger,
		schema: make(map[string][]string),
	}
}

// Register loads one file and returns the derived data sources (one per
// sheet for workbooks). Each source has a backing relation created under
// its disambiguated default name.
func (r *Registry) Register(ctx context.Context, path string) ([]*DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("file not found: %s is a directory", path)
	}

	format := FormatFromPath(path)
	if format == FormatUnknown {
		return nil, &UnsupportedFormatError{Path: path}
	}

	// Names chosen within this call must not collide with each other
	// before the caller binds them.
	chosen := make(map[string]bool)
	taken := func(name string) bool {
		return chosen[strings.ToLower(name)] || r.ns.Taken(name)
	}

	var derived []*DataSource
	if format.Native() {
		name := Disambiguate(DefaultTableName(path, format), taken)
		if err := r.db.CreateFileView(ctx, name, path, format.String()); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		derived = append(derived, &DataSource{
			Path:        path,
			Format:      format,
			DefaultName: name,
		})
		chosen[strings.ToLower(name)] = true
	} else {
		if r.sheets == nil {
			return nil, fmt.Errorf("spreadsheet support unavailable: cannot load %s", path)
		}
		sheets, err := r.sheets.ReadWorkbook(path)
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		if len(sheets) == 0 {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("workbook has no readable sheets")}
		}
		for _, sheet := range sheets {
			name := Disambiguate(DefaultSheetTableName(path, sheet.Name), taken)
			if err := r.db.CreateTableFromRows(ctx, name, sheet.Columns, sheet.Rows); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
			derived = append(derived, &DataSource{
				Path:        path,
				Format:      format,
				Sheet:       sheet.Name,
				DefaultName: name,
			})
			chosen[strings.ToLower(name)] = true
		}
	}

	r.sources = append(r.sources, derived...)
	for _, src := range derived {
		r.refreshSchema(ctx, src.DefaultName)
		r.logger.Debug("registered source",
			"path", src.Path, "format", src.Format.String(), "table", src.DefaultName)
	}

	return derived, nil
}

// Sources returns all registered sources in load order.
func (r *Registry) Sources() []*DataSource {
	return r.sources
}

// SchemaCache returns the cached relation -> column-name mapping used by
// the REPL completer.
func (r *Registry) SchemaCache() map[string][]string {
	return r.schema
}

// RenameCached moves a relation's cached schema to its new name after a
// rename.
func (r *Registry) RenameCached(oldName, newName string) {
	for key, cols := range r.schema {
		if strings.EqualFold(key, oldName) {
			delete(r.schema, key)
			r.schema[newName] = cols
			return
		}
	}
}

// CompletionWords returns table and column names in deterministic order.
func (r *Registry) CompletionWords() []string {
	seen := make(map[string]bool)
	var words []string
	add := func(w string) {
		if w != "" && !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	for table, cols := range r.schema {
		add(table)
		for _, c := range cols {
			add(c)
		}
	}
	sort.Strings(words)
	return words
}

func (r *Registry) refreshSchema(ctx context.Context, name string) {
	cols, err := r.db.DescribeTable(ctx, name)
	if err != nil {
		// Completion data only; a miss here never fails a load.
		r.logger.Debug("schema cache refresh failed", "table", name, "error", err)
		return
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	r.schema[name] = names
}
