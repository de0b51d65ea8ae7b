package session

import (
	"strings"

	"github.com/leapstack-labs/sheetql/internal/source"
)

// Alias binds a user-facing table name to a registered data source.
// Uniqueness is case-insensitive: the engine folds unquoted identifiers,
// so two names differing only in case would shadow each other.
type Alias struct {
	Name   string
	Source *source.DataSource
}

// AliasManager owns the alias namespace. At most one alias maps to a given
// name at any time; bind order is preserved for session serialization.
type AliasManager struct {
	byKey map[string]*Alias
	order []*Alias
}

// NewAliasManager creates an empty alias namespace.
func NewAliasManager() *AliasManager {
	return &AliasManager{byKey: make(map[string]*Alias)}
}

func key(name string) string { return strings.ToLower(name) }

// Taken reports whether a name is already claimed. Implements
// source.Namespace for the registry's collision checks.
func (m *AliasManager) Taken(name string) bool {
	_, ok := m.byKey[key(name)]
	return ok
}

// Bind claims a name for a data source.
func (m *AliasManager) Bind(name string, src *source.DataSource) error {
	if m.Taken(name) {
		return &NameConflictError{Name: name}
	}
	a := &Alias{Name: name, Source: src}
	m.byKey[key(name)] = a
	m.order = append(m.order, a)
	return nil
}

// Resolve returns the data source a name denotes.
func (m *AliasManager) Resolve(name string) (*source.DataSource, error) {
	a, ok := m.byKey[key(name)]
	if !ok {
		return nil, ErrUnknownName
	}
	return a.Source, nil
}

// Rename moves a binding to a new name. The operation is atomic: the map
// either reflects the rename fully or not at all. Renaming to a name that
// is in use fails, including a different alias's name; renaming an alias
// to itself (case change only) is allowed.
func (m *AliasManager) Rename(oldName, newName string) error {
	a, ok := m.byKey[key(oldName)]
	if !ok {
		return ErrUnknownName
	}
	if key(oldName) != key(newName) && m.Taken(newName) {
		return &NameConflictError{Name: newName}
	}
	delete(m.byKey, key(oldName))
	a.Name = newName
	m.byKey[key(newName)] = a
	return nil
}

// Aliases returns all bindings in bind order.
func (m *AliasManager) Aliases() []*Alias {
	return m.order
}

// Len returns the number of bindings.
func (m *AliasManager) Len() int {
	return len(m.order)
}

var _ source.Namespace = (*AliasManager)(nil)
