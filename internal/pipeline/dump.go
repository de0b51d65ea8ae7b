package pipeline

import (
	"strings"

	"github.com/leapstack-labs/sheetql/internal/session"
)

// MetadataStatement reports whether a statement only inspects catalog
// state. Such statements are not worth replaying and are never serialized
// as tasks.
func MetadataStatement(sqlText string) bool {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SHOW", "DESCRIBE", "DESC", "PRAGMA":
		return true
	}
	return false
}

// FromSession projects live session state into a replayable pipeline:
// inputs from the alias bindings in bind order, tasks from the staging
// area in staging order, and the export destination. Running the result
// against a fresh session reproduces the staged set.
func FromSession(s *session.Session, exportPath string) *Pipeline {
	p := &Pipeline{}

	for _, a := range s.Aliases() {
		p.Inputs = append(p.Inputs, Input{
			Path:  a.Source.Path,
			Alias: a.Name,
			Sheet: a.Source.Sheet,
		})
	}

	for _, staged := range s.Staged() {
		if staged.Query == nil || MetadataStatement(staged.Query.Text) {
			continue
		}
		p.Tasks = append(p.Tasks, Task{
			Name: staged.ExportName,
			SQL:  staged.Query.Text,
		})
	}

	if exportPath == "" {
		exportPath = s.LastExportPath()
	}
	p.Export = &Export{Path: exportPath}

	return p
}
