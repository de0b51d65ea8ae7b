package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/sheetql/internal/config"
	"github.com/leapstack-labs/sheetql/internal/pipeline"
	"github.com/leapstack-labs/sheetql/internal/session"
)

const mainPrompt = "sheetql> "
const contPrompt = "    ...> "

// repl drives the interactive loop around one session.
type repl struct {
	session *session.Session
	exec    *pipeline.Executor
	cfg     *config.Config
	rl      *readline.Instance
	out     io.Writer
	errOut  io.Writer
}

func runREPL(out, errOut io.Writer, s *session.Session, exec *pipeline.Executor, cfg *config.Config, files []string) error {
	historyFile := filepath.Join(filepath.Dir(cfg.StatePath), "query_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          mainPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCompleter(s),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := &repl{session: s, exec: exec, cfg: cfg, rl: rl, out: out, errOut: errOut}

	r.printBanner()
	r.loadFiles(context.Background(), files)

	if len(s.Aliases()) == 0 {
		if paths, err := r.prompt("Enter file path(s) to load (comma separated, blank to skip): "); err == nil && paths != "" {
			r.loadFiles(context.Background(), splitPaths(paths))
		}
	}

	return r.loop()
}

func (r *repl) printBanner() {
	_, _ = fmt.Fprintln(r.out, "SheetQL - query CSV, Excel, JSON, and Parquet files with SQL")
	_, _ = fmt.Fprintf(r.out, "Engine: DuckDB (in-memory)  Output: %s\n", r.cfg.OutputFormat)
	_, _ = fmt.Fprintln(r.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) loop() error {
	var buf strings.Builder
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			r.rl.SetPrompt(mainPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			r.confirmExportOnExit()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 {
			if strings.HasPrefix(line, ".") {
				if quit := r.handleDotCommand(line); quit {
					r.confirmExportOnExit()
					return nil
				}
				continue
			}
			if strings.HasPrefix(line, "!") {
				r.handleReplay(line)
				continue
			}
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			r.rl.SetPrompt(contPrompt)
			continue
		}
		r.rl.SetPrompt(mainPrompt)

		stmt := strings.TrimSuffix(strings.TrimSpace(buf.String()), ";")
		buf.Reset()
		r.executeStatement(stmt)
	}
}

// prompt asks a one-off question on the readline instance.
func (r *repl) prompt(question string) (string, error) {
	r.rl.SetPrompt(question)
	defer r.rl.SetPrompt(mainPrompt)
	line, err := r.rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func (r *repl) loadFiles(ctx context.Context, paths []string) {
	for _, path := range paths {
		derived, err := r.session.Load(ctx, path)
		if err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			continue
		}
		for _, src := range derived {
			_, _ = fmt.Fprintf(r.out, "Loaded %s as table %q\n", path, src.DefaultName)
		}
	}
}

// executeStatement runs one SQL statement with Ctrl-C cancellation wired to
// the statement only, renders the result, and offers to stage it.
func (r *repl) executeStatement(stmt string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	res, entry, err := r.session.Query(ctx, stmt)
	stop()

	if err != nil {
		if errors.Is(err, session.ErrCancelled) {
			_, _ = fmt.Fprintln(r.errOut, "Query cancelled")
			return
		}
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		return
	}

	if err := renderResult(r.out, res, r.cfg.OutputFormat, r.cfg.PreviewRows); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintln(r.out)

	if pipeline.MetadataStatement(stmt) {
		return
	}

	answer, err := r.prompt("Stage this result for export? [y/N]: ")
	if err != nil || !isYes(answer) {
		return
	}
	name, err := r.prompt("Sheet name (blank for generated): ")
	if err != nil {
		return
	}
	staged, err := r.session.Stage(entry, res, name)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "Staged as %q (%d rows)\n", staged.ExportName, staged.Snapshot.RowCount())
}

// handleReplay expands a !N token and runs the recalled statement once.
// The expansion is textual; the recalled statement is recorded again under
// its own index.
func (r *repl) handleReplay(line string) {
	n, err := strconv.Atoi(strings.TrimPrefix(line, "!"))
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %q is not a history reference (use !N)\n", line)
		return
	}
	stmt, err := r.session.Expand(n)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s%s\n", mainPrompt, stmt)
	r.executeStatement(stmt)
}

// handleDotCommand dispatches a meta-command; it returns true when the REPL
// should exit.
func (r *repl) handleDotCommand(line string) bool {
	ctx := context.Background()
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		r.printHelp()

	case ".tables":
		tables, err := r.session.Tables(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		if len(tables) == 0 {
			_, _ = fmt.Fprintln(r.out, "(no tables loaded)")
			return false
		}
		for _, name := range tables {
			_, _ = fmt.Fprintf(r.out, "  %s\n", name)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .schema <table>")
			return false
		}
		cols, err := r.session.Describe(ctx, parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		renderColumns(r.out, parts[1], cols)

	case ".rename":
		if len(parts) != 3 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .rename <old> <new>")
			return false
		}
		if err := r.session.Rename(ctx, parts[1], parts[2]); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(r.out, "Renamed %q to %q\n", parts[1], parts[2])

	case ".load":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .load <path>[, <path>...]")
			return false
		}
		r.loadFiles(ctx, splitPaths(strings.Join(parts[1:], " ")))

	case ".history":
		limit := 0
		if len(parts) > 1 {
			if n, err := strconv.Atoi(parts[1]); err == nil {
				limit = n
			}
		}
		for _, e := range r.session.History(limit) {
			_, _ = fmt.Fprintf(r.out, "%4d  [%s]  %s\n", e.Index, e.Status, e.Text)
		}

	case ".staged":
		staged := r.session.Staged()
		if len(staged) == 0 {
			_, _ = fmt.Fprintln(r.out, "(nothing staged)")
			return false
		}
		for _, st := range staged {
			_, _ = fmt.Fprintf(r.out, "  %s (%d rows)\n", st.ExportName, st.Snapshot.RowCount())
		}

	case ".dump":
		p := pipeline.FromSession(r.session, "")
		if len(parts) > 1 {
			if err := p.WriteFile(parts[1]); err != nil {
				_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
				return false
			}
			_, _ = fmt.Fprintf(r.out, "Wrote pipeline to %s\n", parts[1])
			return false
		}
		data, err := p.Encode()
		if err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprint(r.out, string(data))

	case ".runscript":
		if len(parts) != 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .runscript <file>")
			return false
		}
		p, err := pipeline.LoadFile(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		if err := r.exec.Run(ctx, p, parts[1]); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(r.out, "Script %s completed\n", parts[1])

	case ".export":
		path := ""
		if len(parts) > 1 {
			path = parts[1]
		}
		if len(r.session.Staged()) == 0 {
			_, _ = fmt.Fprintln(r.out, "Nothing staged; run a query and stage it first")
			return false
		}
		if err := r.session.Export(ctx, path); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(r.out, "Exported to %s\n", r.session.LastExportPath())

	case ".clear":
		_, _ = fmt.Fprint(r.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

// confirmExportOnExit offers a final export when staged results would be
// lost.
func (r *repl) confirmExportOnExit() {
	staged := r.session.Staged()
	if len(staged) == 0 {
		return
	}
	answer, err := r.prompt(fmt.Sprintf("You have %d staged result(s). Export before exiting? [y/N]: ", len(staged)))
	if err != nil || !isYes(answer) {
		return
	}
	if err := r.session.Export(context.Background(), ""); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "Exported to %s\n", r.session.LastExportPath())
}

func isYes(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *repl) printHelp() {
	help := `
Commands:
  .help                Show this help message
  .tables              List loaded tables
  .schema <name>       Show columns of a table
  .rename <old> <new>  Rename a table
  .load <paths>        Load more files (comma separated)
  .history [n]         Show recent statements
  !N                   Re-run statement N from history
  .staged              List results staged for export
  .dump [file]         Write the session as a YAML pipeline
  .runscript <file>    Execute a YAML pipeline in this session
  .export [path]       Write staged results to an Excel report
  .clear               Clear the screen
  .quit / .exit        Exit

Tips:
  - SQL statements must end with a semicolon (;)
  - Ctrl-C cancels a running query
  - Tab completion works for table and column names
`
	_, _ = fmt.Fprintln(r.out, help)
}

// newCompleter builds a completer that re-reads the session's table and
// column names on every keystroke, so loads and renames show up
// immediately.
func newCompleter(s *session.Session) *readline.PrefixCompleter {
	dynamic := readline.PcItemDynamic(func(string) []string {
		return s.CompletionWords()
	})
	return readline.NewPrefixCompleter(
		dynamic,
		readline.PcItem("SELECT"),
		readline.PcItem("FROM"),
		readline.PcItem("WHERE"),
		readline.PcItem("GROUP"),
		readline.PcItem("ORDER"),
		readline.PcItem("JOIN"),
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", dynamic),
		readline.PcItem(".rename", dynamic),
		readline.PcItem(".load"),
		readline.PcItem(".history"),
		readline.PcItem(".staged"),
		readline.PcItem(".dump"),
		readline.PcItem(".runscript"),
		readline.PcItem(".export"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
