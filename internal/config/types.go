// Package config provides layered configuration for the SheetQL CLI.
// Precedence, lowest to highest: built-in defaults, a sheetql.yaml file,
// SHEETQL_ environment variables, command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	// HistoryCapacity bounds the session history ledger.
	HistoryCapacity int `koanf:"history_capacity"`
	// ExportPath is the default report destination.
	ExportPath string `koanf:"export_path"`
	// MemoryLimit caps engine memory ("2GB"); empty lets the engine decide.
	MemoryLimit string `koanf:"memory_limit"`
	// OutputFormat selects result rendering: table, json, csv, markdown.
	OutputFormat string `koanf:"output"`
	// StatePath locates the run ledger database.
	StatePath string `koanf:"state_path"`
	// PreviewRows caps interactive result previews; 0 disables the cap.
	PreviewRows int `koanf:"preview_rows"`
	// LogFile receives structured logs; empty discards them.
	LogFile string `koanf:"log_file"`
	// Verbose enables debug-level logging.
	Verbose bool `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultHistoryCapacity = 50
	DefaultStateFile       = ".sheetql/state.db"
	DefaultOutput          = "table"
	DefaultPreviewRows     = 15
)
