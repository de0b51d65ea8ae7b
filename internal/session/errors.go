package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session core. Callers match with errors.Is.
var (
	// ErrUnknownName is returned when a table name resolves to nothing.
	ErrUnknownName = errors.New("unknown table name")

	// ErrOutOfRange is returned for replay tokens that never existed.
	ErrOutOfRange = errors.New("history index out of range")

	// ErrEvicted is returned for replay tokens whose entries have been
	// evicted from the bounded history buffer.
	ErrEvicted = errors.New("history entry no longer available")

	// ErrClosed is returned for any action after the session reached its
	// terminal state.
	ErrClosed = errors.New("session is closed")

	// ErrCancelled marks a user-interrupted operation. The action is
	// treated as failed, never partially applied.
	ErrCancelled = errors.New("operation cancelled")
)

// NameConflictError is returned when a bind or rename targets a name that
// is already in use.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("table name already in use: %s", e.Name)
}
