package source

import "testing"

func TestFormatFromPath(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"data/sales.csv", FormatCSV},
		{"Report Q1.XLSX", FormatExcel},
		{"legacy.xls", FormatExcel},
		{"events.jsonl", FormatJSON},
		{"events.ndjson", FormatJSON},
		{"big.parquet", FormatParquet},
		{"notes.txt", FormatUnknown},
		{"noext", FormatUnknown},
	}

	for _, tc := range cases {
		if got := FormatFromPath(tc.path); got != tc.want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDefaultTableName(t *testing.T) {
	cases := []struct {
		path   string
		format Format
		want   string
	}{
		{"/tmp/sales.csv", FormatCSV, "sales_csv"},
		{"/tmp/2024 report.csv", FormatCSV, "t_2024_report_csv"},
		{"monthly-data.parquet", FormatParquet, "monthly_data_parquet"},
		{"events.log.jsonl", FormatJSON, "events_log_json"},
	}

	for _, tc := range cases {
		if got := DefaultTableName(tc.path, tc.format); got != tc.want {
			t.Errorf("DefaultTableName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestDefaultTableName_PureFunctionOfPath(t *testing.T) {
	a := DefaultTableName("/data/a.csv", FormatCSV)
	b := DefaultTableName("/data/a.csv", FormatCSV)
	if a != b {
		t.Errorf("default name not deterministic: %q vs %q", a, b)
	}
}

func TestDefaultSheetTableName(t *testing.T) {
	got := DefaultSheetTableName("/tmp/report.xlsx", "Q1 Totals")
	if got != "report_q1_totals" {
		t.Errorf("DefaultSheetTableName() = %q, want report_q1_totals", got)
	}
}

func TestDisambiguate(t *testing.T) {
	taken := map[string]bool{"sales_csv": true, "sales_csv_2": true}
	isTaken := func(n string) bool { return taken[n] }

	if got := Disambiguate("orders_csv", isTaken); got != "orders_csv" {
		t.Errorf("free name should pass through, got %q", got)
	}
	if got := Disambiguate("sales_csv", isTaken); got != "sales_csv_3" {
		t.Errorf("Disambiguate(sales_csv) = %q, want sales_csv_3", got)
	}
}

func TestSanitizeIdent(t *testing.T) {
	cases := map[string]string{
		"Region (EMEA)":  "Region_EMEA",
		"  total $ ":     "total",
		"":               "unnamed",
		"7days":          "t_7days",
		"already_fine_1": "already_fine_1",
	}
	for in, want := range cases {
		if got := SanitizeIdent(in); got != want {
			t.Errorf("SanitizeIdent(%q) = %q, want %q", in, got, want)
		}
	}
}
