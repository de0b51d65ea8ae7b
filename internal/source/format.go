// Package source implements the source registry: it tracks loaded data
// files, derives deterministic table names for them, and creates the
// backing relations in the query engine.
package source

import (
	"path/filepath"
	"strings"
)

// Format represents the detected file format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatExcel
	FormatJSON
	FormatParquet
)

func (f Format) String() string {
	names := []string{"unknown", "csv", "excel", "json", "parquet"}
	if int(f) < len(names) {
		return names[f]
	}
	return "unknown"
}

// Native reports whether the engine can scan the format directly without an
// external reader.
func (f Format) Native() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatParquet:
		return true
	default:
		return false
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatCSV
	case ".xlsx", ".xls", ".xlsm":
		return FormatExcel
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	default:
		return FormatUnknown
	}
}
