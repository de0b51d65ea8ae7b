package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultHistoryCapacity, cfg.HistoryCapacity)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultPreviewRows, cfg.PreviewRows)
	assert.Empty(t, cfg.ExportPath)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "sheetql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"history_capacity: 10\nexport_path: out/report.xlsx\noutput: json\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.HistoryCapacity)
	assert.Equal(t, "out/report.xlsx", cfg.ExportPath)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, DefaultStateFile, cfg.StatePath, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sheetql.yaml"),
		[]byte("output: json\n"), 0o600))
	t.Setenv("SHEETQL_OUTPUT", "csv")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.OutputFormat)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SHEETQL_OUTPUT", "csv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", DefaultOutput, "")
	flags.String("state", DefaultStateFile, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{
		"--output", "markdown", "--state", "runs.db", "--verbose",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, "runs.db", cfg.StatePath, "--state maps to state_path")
	assert.True(t, cfg.Verbose)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sheetql.yaml"),
		[]byte("output: json\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", DefaultOutput, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat, "default flag value must not mask the file")
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history_capacity: 5\n"), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.HistoryCapacity)
}

func TestLoad_Invalid(t *testing.T) {
	chdirTemp(t)

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"zero history", "history_capacity: 0\n", "history_capacity"},
		{"bad output", "output: xml\n", "output format"},
		{"negative preview", "preview_rows: -2\n", "preview_rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "sheetql.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := Load(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
