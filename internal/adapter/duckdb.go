package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDBAdapter implements the Adapter interface for DuckDB.
type DuckDBAdapter struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
func NewDuckDBAdapter() *DuckDBAdapter {
	return &DuckDBAdapter{}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or empty) as the path for an in-memory database.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.db = db
	a.config = cfg
	a.logger = logger

	if cfg.MemoryLimit != "" {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET memory_limit='%s'", cfg.MemoryLimit)); err != nil {
			// Memory limit is best effort; proceed with engine defaults.
			logger.Debug("memory limit config failed", "limit", cfg.MemoryLimit, "error", err)
		}
	}

	return nil
}

// Close closes the DuckDB connection.
func (a *DuckDBAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (a *DuckDBAdapter) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return &EngineError{SQL: sqlStr, Err: err}
	}

	return nil
}

// Query executes a SQL statement and materializes the full result set.
func (a *DuckDBAdapter) Query(ctx context.Context, sqlStr string) (*Result, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, &EngineError{SQL: sqlStr, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &EngineError{SQL: sqlStr, Err: err}
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, &EngineError{SQL: sqlStr, Err: err}
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, &EngineError{SQL: sqlStr, Err: err}
	}

	return result, nil
}

// CreateFileView creates or replaces a view over a data file using DuckDB's
// native readers. Format must be one of "csv", "json", "parquet".
func (a *DuckDBAdapter) CreateFileView(ctx context.Context, name, path, format string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	// DuckDB wants forward slashes even on Windows.
	cleanPath := strings.ReplaceAll(absPath, "\\", "/")
	escapedPath := strings.ReplaceAll(cleanPath, "'", "''")

	var from string
	switch format {
	case "csv":
		from = fmt.Sprintf("read_csv_auto('%s')", escapedPath)
	case "json":
		from = fmt.Sprintf("read_json_auto('%s')", escapedPath)
	case "parquet":
		from = fmt.Sprintf("'%s'", escapedPath)
	default:
		return fmt.Errorf("no native reader for format %q", format)
	}

	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", quoteIdent(name), from)
	if err := a.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create view for %s: %w", path, err)
	}

	return nil
}

// CreateTableFromRows materializes an in-memory table from column names and
// row values. Used for spreadsheet sheets that DuckDB cannot scan directly.
func (a *DuckDBAdapter) CreateTableFromRows(ctx context.Context, name string, columns []string, rows [][]any) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %s has no columns", name)
	}

	colDefs := make([]string, len(columns))
	for i, c := range columns {
		colDefs[i] = fmt.Sprintf("%s VARCHAR", quoteIdent(c))
	}
	create := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", quoteIdent(name), strings.Join(colDefs, ", "))
	if err := a.Exec(ctx, create); err != nil {
		return err
	}

	if len(rows) == 0 {
		return nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), strings.Join(placeholders, ", "))

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return &EngineError{SQL: insert, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		// Sheets can have ragged rows; pad to the header width.
		vals := make([]any, len(columns))
		for i := range vals {
			if i < len(row) {
				vals[i] = row[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			_ = tx.Rollback()
			return &EngineError{SQL: insert, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows for %s: %w", name, err)
	}

	return nil
}

// RenameRelation renames a view or table. Views and tables need different
// ALTER statements in DuckDB, so the view form is tried first.
func (a *DuckDBAdapter) RenameRelation(ctx context.Context, oldName, newName string) error {
	viewStmt := fmt.Sprintf("ALTER VIEW %s RENAME TO %s", quoteIdent(oldName), quoteIdent(newName))
	viewErr := a.Exec(ctx, viewStmt)
	if viewErr == nil {
		return nil
	}

	tableStmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(oldName), quoteIdent(newName))
	if err := a.Exec(ctx, tableStmt); err != nil {
		return viewErr
	}
	return nil
}

// Tables lists user-visible relation names in deterministic order.
func (a *DuckDBAdapter) Tables(ctx context.Context) ([]string, error) {
	result, err := a.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if s, ok := row[0].(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

// DescribeTable returns column metadata for a relation.
func (a *DuckDBAdapter) DescribeTable(ctx context.Context, table string) ([]Column, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := a.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, &EngineError{SQL: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return columns, nil
}

// quoteIdent double-quotes an identifier for DuckDB.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Ensure DuckDBAdapter implements Adapter interface
var _ Adapter = (*DuckDBAdapter)(nil)
