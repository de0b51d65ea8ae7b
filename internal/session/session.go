// Package session implements the SheetQL session core: the alias
// namespace, the bounded history ledger, the staging area, and the
// controller that composes them with the query engine, the source
// registry, and the report writer. All session state is owned by one
// Session value constructed per run and torn down explicitly; no
// collaborator is given mutating access.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sheetql/internal/adapter"
	"github.com/leapstack-labs/sheetql/internal/export"
	"github.com/leapstack-labs/sheetql/internal/source"
)

// State is the controller's lifecycle state.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateQuerying
	StateExporting
	StateClosed
)

func (s State) String() string {
	names := []string{"empty", "loaded", "querying", "exporting", "closed"}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// DefaultExportFilename is used when no export destination was ever given.
const DefaultExportFilename = "query_result.xlsx"

// Config holds session configuration.
type Config struct {
	// Adapter is the query engine (nil creates a DuckDB adapter).
	Adapter adapter.Adapter
	// AdapterConfig configures the engine connection.
	AdapterConfig adapter.Config
	// SheetReader reads spreadsheet files; nil disables spreadsheet loads.
	SheetReader source.SheetReader
	// Writer renders exports; nil disables exporting.
	Writer export.Writer
	// HistoryCapacity bounds the history ledger (0 uses the default).
	HistoryCapacity int
	// ExportPath is the initial export destination.
	ExportPath string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Session is the top-level orchestrator for one interactive or batch run.
// All mutating operations are strictly sequential; no two of them
// interleave.
type Session struct {
	db       adapter.Adapter
	registry *source.Registry
	aliases  *AliasManager
	history  *Ledger
	staging  *StagingArea
	writer   export.Writer
	logger   *slog.Logger

	state          State
	lastExportPath string
}

// New connects the engine and builds an empty session.
func New(ctx context.Context, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db := cfg.Adapter
	if db == nil {
		db = adapter.NewDuckDBAdapter()
	}
	if err := db.Connect(ctx, cfg.AdapterConfig); err != nil {
		return nil, fmt.Errorf("failed to connect engine: %w", err)
	}

	aliases := NewAliasManager()

	s := &Session{
		db:             db,
		aliases:        aliases,
		history:        NewLedger(cfg.HistoryCapacity),
		staging:        NewStagingArea(),
		writer:         cfg.Writer,
		logger:         logger,
		state:          StateEmpty,
		lastExportPath: cfg.ExportPath,
	}
	s.registry = source.NewRegistry(db, cfg.SheetReader, aliases, logger)

	return s, nil
}

// State returns the controller state.
func (s *Session) State() State {
	return s.state
}

// Load registers one file and binds an alias per derived table. A load
// failure leaves the session in its prior state.
func (s *Session) Load(ctx context.Context, path string) ([]*source.DataSource, error) {
	if s.state == StateClosed {
		return nil, ErrClosed
	}

	derived, err := s.registry.Register(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("load of %s: %w", path, ErrCancelled)
		}
		return nil, err
	}

	for _, src := range derived {
		if err := s.aliases.Bind(src.DefaultName, src); err != nil {
			// Registry consulted the namespace before choosing the name.
			return nil, fmt.Errorf("internal alias bind failed: %w", err)
		}
	}

	if s.state == StateEmpty {
		s.state = StateLoaded
	}

	s.logger.Info("loaded file", "path", path, "tables", len(derived))
	return derived, nil
}

// Query runs SQL against the engine and materializes the result. The
// statement is recorded in history regardless of outcome; a failure keeps
// the session in its prior state. A context cancellation maps to
// ErrCancelled and the action counts as failed, not partially applied.
func (s *Session) Query(ctx context.Context, sqlText string) (*adapter.Result, *Entry, error) {
	if s.state == StateClosed {
		return nil, nil, ErrClosed
	}

	res, err := s.db.Query(ctx, sqlText)

	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	entry := s.history.Record(sqlText, status)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, entry, fmt.Errorf("query: %w", ErrCancelled)
		}
		return nil, entry, err
	}

	if s.state == StateLoaded || s.state == StateExporting {
		s.state = StateQuerying
	}

	s.logger.Debug("query succeeded", "index", entry.Index, "rows", res.RowCount())
	return res, entry, nil
}

// Rename moves an alias to a new name, atomically: the engine relation is
// renamed first, the alias map second; a failed engine rename leaves the
// map untouched.
func (s *Session) Rename(ctx context.Context, oldName, newName string) error {
	if s.state == StateClosed {
		return ErrClosed
	}

	src, err := s.aliases.Resolve(oldName)
	if err != nil {
		return err
	}
	if oldName != newName && s.aliases.Taken(newName) {
		return &NameConflictError{Name: newName}
	}

	if err := s.db.RenameRelation(ctx, oldName, newName); err != nil {
		return err
	}
	if err := s.aliases.Rename(oldName, newName); err != nil {
		return err
	}
	s.registry.RenameCached(oldName, newName)

	s.logger.Info("renamed table", "from", oldName, "to", newName, "path", src.Path)
	return nil
}

// Resolve returns the data source behind an alias.
func (s *Session) Resolve(name string) (*source.DataSource, error) {
	return s.aliases.Resolve(name)
}

// Stage holds a result snapshot for the next export.
func (s *Session) Stage(entry *Entry, snapshot *adapter.Result, exportName string) (*StagedResult, error) {
	if s.state == StateClosed {
		return nil, ErrClosed
	}
	staged := s.staging.Stage(entry, snapshot, exportName)
	s.logger.Info("staged result", "name", staged.ExportName, "rows", staged.Snapshot.RowCount())
	return staged, nil
}

// Staged returns staged results in staging order.
func (s *Session) Staged() []*StagedResult {
	return s.staging.List()
}

// Expand resolves a replay token to its original statement text.
func (s *Session) Expand(token int) (string, error) {
	return s.history.Expand(token)
}

// History returns up to limit buffered entries, most-recent-last.
func (s *Session) History(limit int) []*Entry {
	return s.history.List(limit)
}

// Aliases returns alias bindings in bind order.
func (s *Session) Aliases() []*Alias {
	return s.aliases.Aliases()
}

// Tables lists relation names known to the engine.
func (s *Session) Tables(ctx context.Context) ([]string, error) {
	return s.db.Tables(ctx)
}

// Describe returns column metadata for a relation.
func (s *Session) Describe(ctx context.Context, name string) ([]adapter.Column, error) {
	return s.db.DescribeTable(ctx, name)
}

// CompletionWords returns table and column names for the REPL completer.
func (s *Session) CompletionWords() []string {
	return s.registry.CompletionWords()
}

// LastExportPath returns the last export destination, or the default
// filename when none was ever set.
func (s *Session) LastExportPath() string {
	if s.lastExportPath == "" {
		return DefaultExportFilename
	}
	return s.lastExportPath
}

// Export writes every staged result to path and clears the staging area on
// success. Zero staged results make export a clean no-op. A write failure
// returns the session to its prior state with the staged set intact.
func (s *Session) Export(ctx context.Context, path string) error {
	if s.state == StateClosed {
		return ErrClosed
	}
	if s.staging.Len() == 0 {
		s.logger.Warn("nothing to export")
		return nil
	}
	if s.writer == nil {
		return &export.WriteError{Path: path, Err: fmt.Errorf("no report writer configured")}
	}
	if path == "" {
		path = s.LastExportPath()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export: %w", ErrCancelled)
	}

	prior := s.state
	s.state = StateExporting

	named := make([]export.NamedResult, 0, s.staging.Len())
	for _, staged := range s.staging.List() {
		named = append(named, export.NamedResult{Name: staged.ExportName, Result: staged.Snapshot})
	}

	if err := s.writer.WriteReport(path, named); err != nil {
		s.state = prior
		return err
	}

	s.lastExportPath = path
	s.staging.Clear()
	if prior == StateEmpty || prior == StateLoaded {
		s.state = prior
	} else {
		s.state = StateQuerying
	}

	s.logger.Info("exported staged results", "path", path, "sheets", len(named))
	return nil
}

// Close moves the session to its terminal state and releases the engine.
// No further actions are accepted afterwards.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	s.staging.Clear()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close engine: %w", err)
	}
	s.logger.Debug("session closed")
	return nil
}
