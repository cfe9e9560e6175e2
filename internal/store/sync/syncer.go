package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/db"
	"github.com/Jana-haikel/Task-manager/internal/store/mirror"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
)

// Mirror is the subset of *mirror.Writer the orchestrator depends on.
type Mirror interface {
	WriteSnapshot(name string, records any) error
	Count(name string) (int, error)
	Bytes(name string) ([]byte, error)
	ReadDocument(name string, dst any) (bool, error)
	UpdateDocument(name string, fn func(current []byte) (any, error)) error
	LockTable(table string) (func(), error)
}

// tableState is the critical section and state of one mirrored table.
type tableState struct {
	section stdsync.Mutex
	state   atomic.Int32
}

func (t *tableState) set(s State) { t.state.Store(int32(s)) }

// syncer implements the Orchestrator interface.
type syncer struct {
	db       *db.DB
	mirror   Mirror
	checker  *Checker
	logger   *log.Logger
	observer Observer
	now      func() time.Time

	tables map[string]*tableState
}

// New creates a new Orchestrator.
//
// The database must be opened and have its schema created before passing it
// here. If config is nil, DefaultConfig() is used; a nil Logger falls back to
// stderr.
//
// Example:
//
//	database, err := db.Open("data/database.db")
//	if err != nil {
//	    return err
//	}
//	if err := database.InitSchema(); err != nil {
//	    return err
//	}
//	w, err := mirror.New("data")
//	if err != nil {
//	    return err
//	}
//	orch := sync.New(database, w, nil)
func New(database *db.DB, m Mirror, config *Config) Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	tables := make(map[string]*tableState, len(Tables))
	for _, t := range Tables {
		tables[t] = &tableState{}
	}

	return &syncer{
		db:       database,
		mirror:   m,
		checker:  NewChecker(database, m, config.VerifyContent),
		logger:   logger,
		observer: config.Observer,
		now:      time.Now,
		tables:   tables,
	}
}

// ListTasks implements Orchestrator.ListTasks.
func (s *syncer) ListTasks(ctx context.Context) ([]schema.Task, error) {
	return s.db.ListTasksContext(ctx)
}

// GetTask implements Orchestrator.GetTask.
func (s *syncer) GetTask(ctx context.Context, id string) (*schema.Task, error) {
	return s.db.GetTaskContext(ctx, id)
}

// CreateTask implements Orchestrator.CreateTask.
func (s *syncer) CreateTask(ctx context.Context, in schema.TaskInput) (string, error) {
	return s.mutate(ctx, TableTasks, "create", func() (string, error) {
		return s.db.CreateTaskContext(ctx, in)
	})
}

// UpdateTask implements Orchestrator.UpdateTask.
func (s *syncer) UpdateTask(ctx context.Context, id string, in schema.TaskInput) error {
	_, err := s.mutate(ctx, TableTasks, "update", func() (string, error) {
		return id, s.db.UpdateTaskContext(ctx, id, in)
	})
	return err
}

// DeleteTask implements Orchestrator.DeleteTask.
func (s *syncer) DeleteTask(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, TableTasks, "delete", func() (string, error) {
		return id, s.db.DeleteTaskContext(ctx, id)
	})
	return err
}

// ToggleTask implements Orchestrator.ToggleTask.
func (s *syncer) ToggleTask(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, TableTasks, "toggle", func() (string, error) {
		return id, s.db.ToggleTaskContext(ctx, id)
	})
	return err
}

// ListTodos implements Orchestrator.ListTodos.
func (s *syncer) ListTodos(ctx context.Context) ([]schema.Todo, error) {
	return s.db.ListTodosContext(ctx)
}

// CreateTodo implements Orchestrator.CreateTodo.
func (s *syncer) CreateTodo(ctx context.Context, in schema.TodoInput) (int64, error) {
	var id int64
	_, err := s.mutate(ctx, TableTodos, "create", func() (string, error) {
		var err error
		id, err = s.db.CreateTodoContext(ctx, in)
		return fmt.Sprint(id), err
	})
	return id, err
}

// UpdateTodo implements Orchestrator.UpdateTodo.
func (s *syncer) UpdateTodo(ctx context.Context, id int64, in schema.TodoInput) error {
	_, err := s.mutate(ctx, TableTodos, "update", func() (string, error) {
		return fmt.Sprint(id), s.db.UpdateTodoContext(ctx, id, in)
	})
	return err
}

// DeleteTodo implements Orchestrator.DeleteTodo.
func (s *syncer) DeleteTodo(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, TableTodos, "delete", func() (string, error) {
		return fmt.Sprint(id), s.db.DeleteTodoContext(ctx, id)
	})
	return err
}

// ToggleTodo implements Orchestrator.ToggleTodo.
func (s *syncer) ToggleTodo(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, TableTodos, "toggle", func() (string, error) {
		return fmt.Sprint(id), s.db.ToggleTodoContext(ctx, id)
	})
	return err
}

// mutate runs one store mutation followed by a full refresh of the table's
// mirror, holding the table's critical section throughout.
func (s *syncer) mutate(ctx context.Context, table, action string, fn func() (string, error)) (string, error) {
	ts := s.tables[table]
	ts.section.Lock()
	defer ts.section.Unlock()

	unlock, err := s.mirror.LockTable(table)
	if err != nil {
		return "", err
	}
	defer unlock()

	id, err := fn()
	if err != nil {
		return id, err
	}
	ts.set(StateDirty)
	s.logger.Printf("Applied %s on %s: %s", action, table, id)

	count, err := s.refresh(ctx, table, ts)
	if err != nil {
		s.logger.Printf("WARNING: %s mirror refresh failed after %s %s: %v", table, action, id, err)
		merr := &store.MirrorError{Table: table, Err: err}
		s.emit(Event{Kind: EventMutation, Table: table, Action: action, ID: id, Error: merr.Error()})
		return id, merr
	}

	s.emit(Event{Kind: EventMutation, Table: table, Action: action, ID: id, Count: count})
	return id, nil
}

// refresh re-reads a table and replaces its mirror document. The caller
// holds the table's critical section.
func (s *syncer) refresh(ctx context.Context, table string, ts *tableState) (int, error) {
	ts.set(StateSyncing)

	records, n, err := readTable(ctx, s.db, table)
	if err != nil {
		ts.set(StateDirty)
		return 0, err
	}

	if err := s.mirror.WriteSnapshot(table, records); err != nil {
		ts.set(StateDirty)
		return 0, err
	}

	ts.set(StateClean)
	s.logger.Printf("Refreshed %s mirror: %d records", table, n)
	return n, nil
}

// SyncTable implements Orchestrator.SyncTable.
func (s *syncer) SyncTable(ctx context.Context, table string) (int, error) {
	ts, ok := s.tables[table]
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}

	ts.section.Lock()
	defer ts.section.Unlock()

	unlock, err := s.mirror.LockTable(table)
	if err != nil {
		return 0, err
	}
	defer unlock()

	return s.refresh(ctx, table, ts)
}

// ResyncAll implements Orchestrator.ResyncAll.
func (s *syncer) ResyncAll(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	s.logger.Printf("Starting full resync")

	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		n, err := s.SyncTable(ctx, table)
		if err != nil {
			s.emit(Event{Kind: EventSync, Table: table, Action: "resync", Error: err.Error()})
			return nil, fmt.Errorf("failed to sync %s: %w", table, err)
		}
		counts[table] = n
	}

	result := &SyncResult{
		Tasks:    counts[TableTasks],
		Todos:    counts[TableTodos],
		Duration: time.Since(start),
	}
	s.logger.Printf("Full resync complete: tasks=%d, todos=%d (%v)", result.Tasks, result.Todos, result.Duration)
	s.emit(Event{Kind: EventSync, Action: "resync", Count: result.Tasks + result.Todos})
	return result, nil
}

// CheckDrift implements Orchestrator.CheckDrift.
func (s *syncer) CheckDrift(ctx context.Context) (*DriftReport, error) {
	report, err := s.checker.Check(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check drift: %w", err)
	}

	if !report.InSync {
		for _, table := range Tables {
			d := report.Tables[table]
			switch {
			case d.MirrorError != "":
				s.logger.Printf("WARNING: %s mirror is corrupt: %s", table, d.MirrorError)
			case d.Drifted():
				s.logger.Printf("Drift on %s: store=%d mirror=%d", table, d.StoreCount, d.MirrorCount)
			}
		}
	}
	if report.ContentInSync != nil && !*report.ContentInSync {
		s.logger.Printf("Content drift detected")
	}

	s.emit(Event{Kind: EventDrift, Report: report})
	return report, nil
}

// Status implements Orchestrator.Status.
func (s *syncer) Status(ctx context.Context) (*Status, error) {
	report, err := s.CheckDrift(ctx)
	if err != nil {
		return nil, err
	}
	return report.Status(), nil
}

// Settings implements Orchestrator.Settings.
//
// A corrupt settings document reads as the defaults; the next update
// replaces it.
func (s *syncer) Settings(ctx context.Context) (schema.Settings, error) {
	var current schema.Settings
	_, err := s.mirror.ReadDocument(DocSettings, &current)
	if errors.Is(err, mirror.ErrCorrupt) {
		s.logger.Printf("WARNING: settings document is corrupt, using defaults: %v", err)
		return schema.DefaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return current.WithDefaults(), nil
}

// UpdateSettings implements Orchestrator.UpdateSettings.
func (s *syncer) UpdateSettings(ctx context.Context, patch schema.Settings) (schema.Settings, error) {
	var merged schema.Settings
	err := s.mirror.UpdateDocument(DocSettings, func(raw []byte) (any, error) {
		var current schema.Settings
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &current); err != nil {
				s.logger.Printf("WARNING: overwriting corrupt settings document: %v", err)
				current = nil
			}
		}
		merged = current.WithDefaults().Merge(patch, s.now())
		return merged, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("Updated settings: %d keys", len(patch))
	s.emit(Event{Kind: EventMutation, Table: DocSettings, Action: "update", Count: len(merged)})
	return merged, nil
}

// Stats implements Orchestrator.Stats.
func (s *syncer) Stats(ctx context.Context) (schema.Stats, error) {
	return s.db.StatsContext(ctx)
}

// State implements Orchestrator.State.
func (s *syncer) State(table string) State {
	ts, ok := s.tables[table]
	if !ok {
		return StateClean
	}
	return State(ts.state.Load())
}

func (s *syncer) emit(e Event) {
	if s.observer == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = s.now().UTC()
	}
	s.observer.OnEvent(e)
}
