package session

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/sheetql/internal/source"
)

func src(path string) *source.DataSource {
	return &source.DataSource{Path: path, Format: source.FormatCSV}
}

func TestAliasManager_BindAndResolve(t *testing.T) {
	m := NewAliasManager()

	if err := m.Bind("sales", src("/data/sales.csv")); err != nil {
		t.Fatalf("Bind() failed: %v", err)
	}

	got, err := m.Resolve("sales")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if got.Path != "/data/sales.csv" {
		t.Errorf("Resolve() path = %q", got.Path)
	}

	if _, err := m.Resolve("orders"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("Resolve(orders) error = %v, want ErrUnknownName", err)
	}
}

func TestAliasManager_DuplicateBindRejected(t *testing.T) {
	m := NewAliasManager()
	if err := m.Bind("sales", src("a.csv")); err != nil {
		t.Fatal(err)
	}

	err := m.Bind("SALES", src("b.csv"))
	var conflict *NameConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Bind() error = %v, want *NameConflictError", err)
	}
	if conflict.Name != "SALES" {
		t.Errorf("conflict name = %q", conflict.Name)
	}
}

func TestAliasManager_Rename(t *testing.T) {
	m := NewAliasManager()
	_ = m.Bind("sales_csv", src("a.csv"))
	_ = m.Bind("orders_csv", src("b.csv"))

	if err := m.Rename("sales_csv", "sales"); err != nil {
		t.Fatalf("Rename() failed: %v", err)
	}
	if _, err := m.Resolve("sales"); err != nil {
		t.Errorf("new name should resolve: %v", err)
	}
	if _, err := m.Resolve("sales_csv"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("old name should be gone, got %v", err)
	}

	// Rename to an occupied name is rejected and changes nothing.
	if err := m.Rename("sales", "orders_csv"); err == nil {
		t.Fatal("Rename() onto occupied name should fail")
	}
	if _, err := m.Resolve("sales"); err != nil {
		t.Errorf("failed rename must leave the old binding intact: %v", err)
	}

	if err := m.Rename("ghost", "x"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("Rename(ghost) error = %v, want ErrUnknownName", err)
	}
}

func TestAliasManager_RenameCaseOnly(t *testing.T) {
	m := NewAliasManager()
	_ = m.Bind("sales", src("a.csv"))

	if err := m.Rename("sales", "Sales"); err != nil {
		t.Fatalf("case-only rename should succeed: %v", err)
	}
	if _, err := m.Resolve("SALES"); err != nil {
		t.Errorf("case-insensitive resolve failed: %v", err)
	}
}

func TestAliasManager_NoDuplicateNamesEver(t *testing.T) {
	m := NewAliasManager()
	_ = m.Bind("a", src("a.csv"))
	_ = m.Bind("b", src("b.csv"))
	_ = m.Rename("a", "c")
	_ = m.Bind("a", src("a2.csv"))
	_ = m.Rename("b", "a") // occupied, must fail

	seen := make(map[string]bool)
	for _, alias := range m.Aliases() {
		if seen[alias.Name] {
			t.Fatalf("duplicate alias name %q", alias.Name)
		}
		seen[alias.Name] = true
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestAliasManager_OrderPreserved(t *testing.T) {
	m := NewAliasManager()
	_ = m.Bind("first", src("1.csv"))
	_ = m.Bind("second", src("2.csv"))
	_ = m.Rename("first", "renamed_first")

	aliases := m.Aliases()
	if aliases[0].Name != "renamed_first" || aliases[1].Name != "second" {
		t.Errorf("bind order not preserved across rename: %v, %v", aliases[0].Name, aliases[1].Name)
	}
}
