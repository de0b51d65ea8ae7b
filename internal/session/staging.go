package session

import (
	"fmt"

	"github.com/leapstack-labs/sheetql/internal/adapter"
)

// StagedResult is one query result awaiting export.
type StagedResult struct {
	// Query is the history entry that produced the result.
	Query *Entry

	// ExportName is the sheet name used on export.
	ExportName string

	// Snapshot is the materialized result set taken at staging time.
	// It is never re-evaluated.
	Snapshot *adapter.Result
}

// StagingArea holds staged results in staging order. Staging under a name
// that is already staged replaces that entry in place, keeping its
// position.
type StagingArea struct {
	staged []*StagedResult
	seq    int
}

// NewStagingArea creates an empty staging area.
func NewStagingArea() *StagingArea {
	return &StagingArea{}
}

// Stage deep-copies the snapshot and holds it under name. An empty name
// gets the next generated result_N name.
func (s *StagingArea) Stage(entry *Entry, snapshot *adapter.Result, name string) *StagedResult {
	s.seq++
	if name == "" {
		name = fmt.Sprintf("result_%d", s.seq)
	}

	staged := &StagedResult{
		Query:      entry,
		ExportName: name,
		Snapshot:   snapshot.Clone(),
	}

	for i, existing := range s.staged {
		if existing.ExportName == name {
			s.staged[i] = staged
			return staged
		}
	}
	s.staged = append(s.staged, staged)
	return staged
}

// List returns staged results in staging order.
func (s *StagingArea) List() []*StagedResult {
	return s.staged
}

// Len returns the number of staged results.
func (s *StagingArea) Len() int {
	return len(s.staged)
}

// Clear drops everything. Invoked after a successful export or on session
// teardown.
func (s *StagingArea) Clear() {
	s.staged = nil
}
