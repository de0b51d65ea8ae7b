package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sheetql/internal/config"
	"github.com/leapstack-labs/sheetql/internal/pipeline"
	"github.com/leapstack-labs/sheetql/internal/session"
	"github.com/leapstack-labs/sheetql/internal/state"
)

// newSession builds a fully wired session plus the run ledger store.
func newSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session.Session, *state.SQLiteStore, error) {
	if err := ensureStateDir(cfg.StatePath); err != nil {
		return nil, nil, err
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to initialize run ledger: %w", err)
	}

	w := sessionConfig(cfg, logger)
	s, err := session.New(ctx, session.Config{
		AdapterConfig:   w.adapterCfg,
		SheetReader:     w.sheets,
		Writer:          w.writer,
		HistoryCapacity: w.historyCapacity,
		ExportPath:      w.exportPath,
		Logger:          logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return s, store, nil
}

// runBatch executes a pipeline script non-interactively. Any failure is
// returned so the process exits non-zero.
func runBatch(out io.Writer, cfg *config.Config, logger *slog.Logger, scriptPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := pipeline.LoadFile(scriptPath)
	if err != nil {
		return err
	}

	s, store, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	defer func() { _ = s.Close() }()

	exec := pipeline.NewExecutor(s, store, logger)
	if err := exec.Run(ctx, p, scriptPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Pipeline %s completed: %d input(s), %d task(s)\n",
		scriptPath, len(p.Inputs), len(p.Tasks))
	if p.Export != nil {
		_, _ = fmt.Fprintf(out, "Report written to %s\n", p.Export.Path)
	}
	return nil
}

// runInteractive starts the REPL around a fresh session.
func runInteractive(out, errOut io.Writer, cfg *config.Config, logger *slog.Logger, files []string) error {
	s, store, err := newSession(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	defer func() { _ = s.Close() }()

	exec := pipeline.NewExecutor(s, store, logger)
	return runREPL(out, errOut, s, exec, cfg, files)
}

// newRunsCommand lists recorded pipeline runs from the ledger.
func newRunsCommand() *cobra.Command {
	var limit int
	var tasks bool

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded pipeline runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flag("config").Value.String(), cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			if err := ensureStateDir(cfg.StatePath); err != nil {
				return err
			}
			store := state.NewSQLiteStore(slog.New(slog.DiscardHandler))
			if err := store.Open(cfg.StatePath); err != nil {
				return fmt.Errorf("failed to open run ledger: %w", err)
			}
			defer func() { _ = store.Close() }()
			if err := store.InitSchema(); err != nil {
				return err
			}

			if len(args) == 1 {
				return showRun(cmd.OutOrStdout(), store, args[0])
			}
			return listRuns(cmd.OutOrStdout(), store, limit, tasks)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&tasks, "tasks", false, "Include per-task outcomes")
	return cmd
}

func listRuns(w io.Writer, store state.Store, limit int, withTasks bool) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(no runs recorded)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Script", "Status", "Started", "Error"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			shortID(run.ID), run.Script, run.Status,
			run.StartedAt.Format("2006-01-02 15:04:05"), run.Error,
		})
	}
	t.Render()

	if !withTasks {
		return nil
	}
	for _, run := range runs {
		if err := showTasks(w, store, run.ID); err != nil {
			return err
		}
	}
	return nil
}

func showRun(w io.Writer, store state.Store, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Run %s\n  script: %s\n  status: %s\n", run.ID, run.Script, run.Status)
	if run.Error != "" {
		_, _ = fmt.Fprintf(w, "  error:  %s\n", run.Error)
	}
	return showTasks(w, store, run.ID)
}

func showTasks(w io.Writer, store state.Store, runID string) error {
	tasks, err := store.ListTasks(runID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		_, _ = fmt.Fprintf(w, "    %-20s %-8s %6d rows  %5dms  %s\n",
			task.Name, task.Status, task.Rows, task.ExecutionMS, task.Error)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
