package db

import (
	"context"
	"database/sql"

	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
)

const taskColumns = `id, title, description, deadline, completed, created_at, updated_at`

// CreateTask inserts a new task and returns its generated identifier.
//
// The input is normalized (trimmed, HTML-escaped) and validated before
// anything reaches the database.
func (db *DB) CreateTask(in schema.TaskInput) (string, error) {
	return db.CreateTaskContext(context.Background(), in)
}

// CreateTaskContext inserts a new task with context support.
func (db *DB) CreateTaskContext(ctx context.Context, in schema.TaskInput) (string, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}

	now := db.now()
	id := schema.NewTaskID(now)

	query := `
	INSERT INTO tasks (id, title, description, deadline, completed, created_at)
	VALUES (?, ?, ?, ?, 0, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		id,
		in.Title,
		nullString(in.Description),
		nullString(in.Deadline),
		schema.FormatTimestamp(now),
	)
	if err != nil {
		return "", store.Storage("create task", err)
	}

	return id, nil
}

// UpdateTask replaces a task's title, description and deadline.
// Returns *store.NotFoundError if the task doesn't exist.
func (db *DB) UpdateTask(id string, in schema.TaskInput) error {
	return db.UpdateTaskContext(context.Background(), id, in)
}

// UpdateTaskContext updates a task with context support.
func (db *DB) UpdateTaskContext(ctx context.Context, id string, in schema.TaskInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	return db.stampTask(ctx, id, `
	UPDATE tasks SET title = ?, description = ?, deadline = ?, updated_at = ?
	WHERE id = ?
	`, func(stamp string) []any {
		return []any{in.Title, nullString(in.Description), nullString(in.Deadline), stamp, id}
	})
}

// ToggleTask flips a task's completed flag.
// Returns *store.NotFoundError if the task doesn't exist.
func (db *DB) ToggleTask(id string) error {
	return db.ToggleTaskContext(context.Background(), id)
}

// ToggleTaskContext flips a task's completed flag with context support.
func (db *DB) ToggleTaskContext(ctx context.Context, id string) error {
	return db.stampTask(ctx, id, `
	UPDATE tasks SET
		completed = CASE completed WHEN 0 THEN 1 ELSE 0 END,
		updated_at = ?
	WHERE id = ?
	`, func(stamp string) []any {
		return []any{stamp, id}
	})
}

// stampTask runs a task mutation that sets updated_at.
//
// The previous stamp is read inside the same immediate transaction so the new
// updated_at is strictly later than the one it replaces.
func (db *DB) stampTask(ctx context.Context, id, query string, args func(stamp string) []any) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return store.Storage("begin transaction", err)
	}
	defer tx.Rollback()

	var createdAt string
	var updatedAt sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM tasks WHERE id = ?`, id,
	).Scan(&createdAt, &updatedAt)
	if isNoRows(err) {
		return &store.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return store.Storage("read task "+id, err)
	}

	prev := createdAt
	if updatedAt.Valid {
		prev = updatedAt.String
	}
	stamp := schema.NextTimestamp(db.now(), prev)

	res, err := tx.ExecContext(ctx, query, args(stamp)...)
	if err != nil {
		return store.Storage("update task "+id, err)
	}
	if err := requireAffected(res, "task", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return store.Storage("commit transaction", err)
	}
	return nil
}

// DeleteTask removes a task.
// Returns *store.NotFoundError if the task doesn't exist.
func (db *DB) DeleteTask(id string) error {
	return db.DeleteTaskContext(context.Background(), id)
}

// DeleteTaskContext removes a task with context support.
func (db *DB) DeleteTaskContext(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return store.Storage("delete task "+id, err)
	}
	return requireAffected(res, "task", id)
}

// GetTask retrieves a single task by ID.
// Returns *store.NotFoundError if the task doesn't exist.
func (db *DB) GetTask(id string) (*schema.Task, error) {
	return db.GetTaskContext(context.Background(), id)
}

// GetTaskContext retrieves a single task with context support.
func (db *DB) GetTaskContext(ctx context.Context, id string) (*schema.Task, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if isNoRows(err) {
		return nil, &store.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return nil, store.Storage("get task "+id, err)
	}
	return task, nil
}

// ListTasks returns all tasks in canonical order: newest-created first.
// Ties on created_at fall back to insertion order, newest first.
func (db *DB) ListTasks() ([]schema.Task, error) {
	return db.ListTasksContext(context.Background())
}

// ListTasksContext returns all tasks with context support.
func (db *DB) ListTasksContext(ctx context.Context) ([]schema.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, store.Storage("list tasks", err)
	}
	defer rows.Close()

	tasks := []schema.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.Storage("scan task", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Storage("iterate tasks", err)
	}
	return tasks, nil
}

// TaskCount returns the total number of tasks.
func (db *DB) TaskCount() (int, error) {
	return db.TaskCountContext(context.Background())
}

// TaskCountContext returns the total number of tasks with context support.
func (db *DB) TaskCountContext(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count); err != nil {
		return 0, store.Storage("count tasks", err)
	}
	return count, nil
}

// Stats returns total and completed task counts.
func (db *DB) Stats() (schema.Stats, error) {
	return db.StatsContext(context.Background())
}

// StatsContext returns task statistics with context support.
func (db *DB) StatsContext(ctx context.Context) (schema.Stats, error) {
	var stats schema.Stats
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM tasks`,
	).Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return schema.Stats{}, store.Storage("compute stats", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*schema.Task, error) {
	var (
		task        schema.Task
		description sql.NullString
		deadline    sql.NullString
		completed   int
		updatedAt   sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&deadline,
		&completed,
		&task.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = stringPtr(description)
	task.Deadline = stringPtr(deadline)
	task.Completed = completed != 0
	task.UpdatedAt = stringPtr(updatedAt)
	return &task, nil
}
