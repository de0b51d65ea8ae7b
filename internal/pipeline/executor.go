package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/sheetql/internal/session"
	"github.com/leapstack-labs/sheetql/internal/source"
	"github.com/leapstack-labs/sheetql/internal/state"
)

// Executor runs a pipeline against a session in two phases: the whole
// script is validated first, then inputs, tasks, and the export are
// applied strictly in declaration order. The first runtime failure aborts
// the run; results staged before the failure stay staged.
type Executor struct {
	session *session.Session
	store   state.Store
	logger  *slog.Logger
}

// NewExecutor builds an executor. The store is optional; a nil store
// disables run recording.
func NewExecutor(s *session.Session, store state.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{session: s, store: store, logger: logger}
}

// Run executes the pipeline. A validation failure is fatal before anything
// is applied and is not recorded as a run. script labels the run in the
// ledger, typically the script file path.
func (e *Executor) Run(ctx context.Context, p *Pipeline, script string) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var runID string
	if e.store != nil {
		run, err := e.store.CreateRun(script)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		runID = run.ID
	}

	if err := e.loadInputs(ctx, p.Inputs); err != nil {
		e.completeRun(runID, state.RunStatusFailed, err.Error())
		return err
	}

	if err := e.runTasks(ctx, p.Tasks, runID); err != nil {
		e.completeRun(runID, state.RunStatusFailed, err.Error())
		return err
	}

	if p.Export != nil {
		if err := e.session.Export(ctx, p.Export.Path); err != nil {
			err = fmt.Errorf("export to %s: %w", p.Export.Path, err)
			e.completeRun(runID, state.RunStatusFailed, err.Error())
			return err
		}
	}

	e.completeRun(runID, state.RunStatusCompleted, "")
	e.logger.Info("pipeline completed", "script", script,
		"inputs", len(p.Inputs), "tasks", len(p.Tasks))
	return nil
}

// loadInputs registers input files in order. A file appearing in several
// inputs (one per workbook sheet) is loaded once; later inputs only rename
// the table derived from their sheet.
func (e *Executor) loadInputs(ctx context.Context, inputs []Input) error {
	loaded := make(map[string][]*source.DataSource)
	bound := make(map[*source.DataSource]string)

	for i, in := range inputs {
		derived, ok := loaded[in.Path]
		if !ok {
			var err error
			derived, err = e.session.Load(ctx, in.Path)
			if err != nil {
				return fmt.Errorf("input %d (%s): %w", i+1, in.Path, err)
			}
			loaded[in.Path] = derived
			for _, src := range derived {
				bound[src] = src.DefaultName
			}
		}

		if in.Alias == "" {
			continue
		}
		target, err := pickTarget(derived, in)
		if err != nil {
			return fmt.Errorf("input %d (%s): %w", i+1, in.Path, err)
		}
		current := bound[target]
		if current == in.Alias {
			continue
		}
		if err := e.session.Rename(ctx, current, in.Alias); err != nil {
			return fmt.Errorf("input %d (%s): alias %q: %w", i+1, in.Path, in.Alias, err)
		}
		bound[target] = in.Alias
	}
	return nil
}

// pickTarget selects which derived table an aliased input refers to. A
// sheet name disambiguates workbooks; without one the file must yield
// exactly one table.
func pickTarget(derived []*source.DataSource, in Input) (*source.DataSource, error) {
	if in.Sheet != "" {
		for _, src := range derived {
			if src.Sheet == in.Sheet {
				return src, nil
			}
		}
		return nil, fmt.Errorf("no sheet %q in file", in.Sheet)
	}
	if len(derived) != 1 {
		return nil, fmt.Errorf("file yields %d tables; alias needs a sheet", len(derived))
	}
	return derived[0], nil
}

// runTasks executes tasks sequentially, staging each result under the task
// name. On failure the remaining tasks are marked skipped and the run
// aborts; results staged by earlier tasks are left intact.
func (e *Executor) runTasks(ctx context.Context, tasks []Task, runID string) error {
	for i, task := range tasks {
		started := time.Now()
		res, entry, err := e.session.Query(ctx, task.SQL)
		elapsed := time.Since(started).Milliseconds()

		if err != nil {
			e.recordTask(runID, &state.TaskRun{
				Name:        task.Name,
				Status:      state.TaskStatusFailed,
				Error:       err.Error(),
				ExecutionMS: elapsed,
			})
			for _, skipped := range tasks[i+1:] {
				e.recordTask(runID, &state.TaskRun{
					Name:   skipped.Name,
					Status: state.TaskStatusSkipped,
				})
			}
			return fmt.Errorf("task %q (%d of %d): %w", task.Name, i+1, len(tasks), err)
		}

		if _, err := e.session.Stage(entry, res, task.Name); err != nil {
			return fmt.Errorf("task %q: %w", task.Name, err)
		}
		e.recordTask(runID, &state.TaskRun{
			Name:        task.Name,
			Status:      state.TaskStatusSuccess,
			Rows:        int64(res.RowCount()),
			ExecutionMS: elapsed,
		})
		e.logger.Debug("task succeeded", "name", task.Name, "rows", res.RowCount(),
			"sql", firstLine(task.SQL))
	}
	return nil
}

func (e *Executor) completeRun(runID string, status state.RunStatus, errMsg string) {
	if e.store == nil || runID == "" {
		return
	}
	if err := e.store.CompleteRun(runID, status, errMsg); err != nil {
		e.logger.Error("failed to complete run record", "run", runID, "error", err)
	}
}

func (e *Executor) recordTask(runID string, task *state.TaskRun) {
	if e.store == nil || runID == "" {
		return
	}
	task.RunID = runID
	if err := e.store.RecordTask(task); err != nil {
		e.logger.Error("failed to record task", "run", runID, "task", task.Name, "error", err)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
