package source

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// SanitizeIdent turns an arbitrary string into a safe SQL identifier:
// runs of non-word characters collapse to a single underscore.
func SanitizeIdent(s string) string {
	out := identRe.ReplaceAllString(strings.TrimSpace(s), "_")
	out = strings.Trim(out, "_")
	if out == "" {
		return "unnamed"
	}
	// Identifiers must not start with a digit.
	if out[0] >= '0' && out[0] <= '9' {
		out = "t_" + out
	}
	return out
}

// DefaultTableName derives the deterministic default table name for a file:
// the sanitized basename plus a format suffix (sales.csv -> sales_csv).
// It is a pure function of the path.
func DefaultTableName(path string, format Format) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s", SanitizeIdent(base), format.String())
}

// DefaultSheetTableName derives the default name for one sheet of a
// workbook: sanitized basename plus the sanitized, lowercased sheet name
// (report.xlsx / "Q1 Totals" -> report_q1_totals).
func DefaultSheetTableName(path, sheet string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s", SanitizeIdent(base), strings.ToLower(SanitizeIdent(sheet)))
}

// Disambiguate returns name itself when free, otherwise the first of
// name_2, name_3, ... that taken reports as free. Purely deterministic in
// registration order, so batch loads of similarly named files never abort.
func Disambiguate(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
