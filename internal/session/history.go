package session

import (
	"fmt"
	"time"
)

// Status records how a statement fared.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// DefaultHistoryCapacity bounds the history buffer when no capacity is
// configured.
const DefaultHistoryCapacity = 50

// Entry is one executed statement. Indices are 1-based, contiguous, and
// never reused within a session, even after eviction.
type Entry struct {
	Index     int
	Text      string
	Timestamp time.Time
	Status    Status
}

// Ledger is the append-only, size-bounded statement log. The buffer drops
// its oldest entries past capacity, but index numbering keeps increasing:
// replaying an evicted index fails loudly instead of silently no-opping.
type Ledger struct {
	capacity int
	next     int
	entries  []*Entry
}

// NewLedger creates a ledger holding at most capacity entries.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Ledger{capacity: capacity, next: 1}
}

// Record appends a statement and returns its entry. Record always
// succeeds.
func (l *Ledger) Record(text string, status Status) *Entry {
	e := &Entry{
		Index:     l.next,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Status:    status,
	}
	l.next++
	l.entries = append(l.entries, e)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
	return e
}

// Expand resolves a replay token to the original statement text. It never
// re-executes anything; dispatch stays with the caller.
func (l *Ledger) Expand(token int) (string, error) {
	if token < 1 || token >= l.next {
		return "", fmt.Errorf("!%d: %w", token, ErrOutOfRange)
	}
	oldest := l.next - len(l.entries)
	if token < oldest {
		return "", fmt.Errorf("!%d: %w", token, ErrEvicted)
	}
	return l.entries[token-oldest].Text, nil
}

// List returns up to limit entries, most-recent-last. limit <= 0 returns
// everything still buffered.
func (l *Ledger) List(limit int) []*Entry {
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]*Entry, limit)
	copy(out, l.entries[len(l.entries)-limit:])
	return out
}

// Len returns the number of buffered entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}
