package sync

import (
	"context"

	"github.com/Jana-haikel/Task-manager/internal/store/schema"
)

// Mirror document names.
const (
	TableTasks  = "tasks"
	TableTodos  = "todos"
	DocSettings = "settings"
)

// Tables lists the mirrored tables in sync order.
var Tables = []string{TableTasks, TableTodos}

// Orchestrator is the narrow interface the outer layers (CLI, daemon,
// dashboard) call into.
//
// Every mutating task or todo operation runs the write-then-mirror protocol:
//  1. perform the store mutation
//  2. re-read the whole affected table in canonical order
//  3. atomically replace the table's mirror document
//
// Steps 1-3 run inside a per-table critical section, so two mutations of the
// same table cannot interleave their store write and mirror refresh, even
// across processes sharing the same mirror directory.
//
// A mutation that fails (validation, not found, storage) never touches the
// mirror. A mutation whose store write commits but whose mirror refresh fails
// returns *store.MirrorError: the store is not rolled back and the table stays
// Dirty until the next successful sync.
type Orchestrator interface {
	// ListTasks returns all tasks from the store, newest-created first.
	ListTasks(ctx context.Context) ([]schema.Task, error)

	// GetTask returns one task or *store.NotFoundError.
	GetTask(ctx context.Context, id string) (*schema.Task, error)

	// CreateTask stores a new task and refreshes the tasks mirror.
	//
	// On partial success (*store.MirrorError) the new id is still returned.
	//
	// Example:
	//   id, err := orch.CreateTask(ctx, schema.TaskInput{Title: "Write report"})
	CreateTask(ctx context.Context, in schema.TaskInput) (string, error)

	// UpdateTask replaces title, description and deadline.
	UpdateTask(ctx context.Context, id string, in schema.TaskInput) error

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error

	// ToggleTask flips a task's completed flag and stamps updated_at.
	ToggleTask(ctx context.Context, id string) error

	// ListTodos returns all todos in ascending id order.
	ListTodos(ctx context.Context) ([]schema.Todo, error)

	// CreateTodo stores a new todo and refreshes the todos mirror.
	CreateTodo(ctx context.Context, in schema.TodoInput) (int64, error)

	// UpdateTodo replaces a todo's text.
	UpdateTodo(ctx context.Context, id int64, in schema.TodoInput) error

	// DeleteTodo removes a todo.
	DeleteTodo(ctx context.Context, id int64) error

	// ToggleTodo flips a todo's completed flag.
	ToggleTodo(ctx context.Context, id int64) error

	// Settings returns the settings document, or the defaults
	// {theme: "light", showCompleted: true} when none has been saved or the
	// document is corrupt.
	Settings(ctx context.Context) (schema.Settings, error)

	// UpdateSettings shallow-merges patch into the current settings,
	// stamps updatedAt and returns the merged record.
	//
	// Example:
	//   s, err := orch.UpdateSettings(ctx, schema.Settings{"theme": "dark"})
	//   // s == {theme: dark, showCompleted: true, updatedAt: ...}
	UpdateSettings(ctx context.Context, patch schema.Settings) (schema.Settings, error)

	// Stats returns total and completed task counts.
	Stats(ctx context.Context) (schema.Stats, error)

	// CheckDrift compares store and mirror record counts per table.
	//
	// InSync is count equality only: equal counts with different records
	// still report InSync. A mirror document that cannot be decoded is
	// reported as drift (TableDrift.MirrorError), not returned as an error.
	// With content verification enabled the report also carries per-table
	// digests and ContentInSync, which never affect InSync.
	CheckDrift(ctx context.Context) (*DriftReport, error)

	// Status reshapes CheckDrift into {sqlite, json, inSync}.
	Status(ctx context.Context) (*Status, error)

	// ResyncAll rewrites every table's mirror from the store unconditionally.
	//
	// Idempotent: repeated calls with no intervening mutation leave the
	// mirror byte-identical.
	ResyncAll(ctx context.Context) (*SyncResult, error)

	// SyncTable rewrites one table's mirror and returns the record count.
	SyncTable(ctx context.Context, table string) (int, error)

	// State returns the sync state of a table as seen by this process.
	State(table string) State
}
