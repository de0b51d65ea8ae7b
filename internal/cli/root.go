// Package cli provides the command-line interface for SheetQL.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sheetql/internal/adapter"
	"github.com/leapstack-labs/sheetql/internal/config"
	"github.com/leapstack-labs/sheetql/internal/export"
	"github.com/leapstack-labs/sheetql/internal/source"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile    string
		scriptFile string
		cfg        *config.Config
	)

	rootCmd := &cobra.Command{
		Use:   "sheetql [files...]",
		Short: "SheetQL - SQL over spreadsheet and data files",
		Long: `SheetQL loads CSV, Excel, JSON, and Parquet files into an in-memory
DuckDB database, lets you query them with SQL, stage results, and export
a consolidated Excel report. A session can be serialized to a YAML
pipeline and replayed later.`,
		Version: Version,
		Args:    cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			if scriptFile != "" {
				return runBatch(cmd.OutOrStdout(), cfg, logger, scriptFile)
			}
			return runInteractive(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sheetql.yaml)")
	rootCmd.Flags().StringVarP(&scriptFile, "run", "r", "", "Run a YAML pipeline script instead of the REPL")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json|csv|markdown)")
	rootCmd.PersistentFlags().String("state", "", "Path to the run ledger database")
	rootCmd.PersistentFlags().String("export-path", "", "Default export destination")
	rootCmd.PersistentFlags().String("memory-limit", "", "Engine memory budget (e.g. 2GB)")
	rootCmd.PersistentFlags().Int("history-capacity", 0, "Statements kept in session history")
	rootCmd.PersistentFlags().Int("preview-rows", 0, "Rows shown per result preview (0 = all)")
	rootCmd.PersistentFlags().String("log-file", "", "Write structured logs to this file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose (debug) logging")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the session logger: a log file when configured, stderr
// when verbose, discard otherwise. The returned func closes the log file.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		return logger, func() { _ = f.Close() }, nil
	}

	if cfg.Verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return logger, func() {}, nil
	}

	return slog.New(slog.DiscardHandler), func() {}, nil
}

// sessionConfig translates CLI configuration into session wiring.
func sessionConfig(cfg *config.Config, logger *slog.Logger) sessionWiring {
	return sessionWiring{
		adapterCfg: adapter.Config{
			MemoryLimit: cfg.MemoryLimit,
			Logger:      logger,
		},
		sheets:          source.NewExcelReader(),
		writer:          export.NewExcelWriter(logger),
		historyCapacity: cfg.HistoryCapacity,
		exportPath:      cfg.ExportPath,
	}
}

type sessionWiring struct {
	adapterCfg      adapter.Config
	sheets          source.SheetReader
	writer          export.Writer
	historyCapacity int
	exportPath      string
}

// ensureStateDir creates the run ledger directory if needed.
func ensureStateDir(statePath string) error {
	dir := filepath.Dir(statePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "sheetql %s\n", Version)
	_, _ = fmt.Fprintf(w, "  build date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(w, "  commit:     %s\n", GitCommit)
}
