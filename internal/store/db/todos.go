package db

import (
	"context"
	"strconv"

	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
)

// CreateTodo inserts a new todo and returns its store-assigned identifier.
func (db *DB) CreateTodo(in schema.TodoInput) (int64, error) {
	return db.CreateTodoContext(context.Background(), in)
}

// CreateTodoContext inserts a new todo with context support.
func (db *DB) CreateTodoContext(ctx context.Context, in schema.TodoInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO todos (text, completed, created_at) VALUES (?, 0, ?)`,
		in.Text, schema.FormatTimestamp(db.now()),
	)
	if err != nil {
		return 0, store.Storage("create todo", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, store.Storage("read todo id", err)
	}
	return id, nil
}

// UpdateTodo replaces a todo's text.
// Returns *store.NotFoundError if the todo doesn't exist.
func (db *DB) UpdateTodo(id int64, in schema.TodoInput) error {
	return db.UpdateTodoContext(context.Background(), id, in)
}

// UpdateTodoContext updates a todo with context support.
func (db *DB) UpdateTodoContext(ctx context.Context, id int64, in schema.TodoInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx, `UPDATE todos SET text = ? WHERE id = ?`, in.Text, id)
	if err != nil {
		return store.Storage("update todo "+todoKey(id), err)
	}
	return requireAffected(res, "todo", todoKey(id))
}

// ToggleTodo flips a todo's completed flag.
func (db *DB) ToggleTodo(id int64) error {
	return db.ToggleTodoContext(context.Background(), id)
}

// ToggleTodoContext flips a todo's completed flag with context support.
func (db *DB) ToggleTodoContext(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE todos SET completed = CASE completed WHEN 0 THEN 1 ELSE 0 END WHERE id = ?`, id)
	if err != nil {
		return store.Storage("toggle todo "+todoKey(id), err)
	}
	return requireAffected(res, "todo", todoKey(id))
}

// DeleteTodo removes a todo.
func (db *DB) DeleteTodo(id int64) error {
	return db.DeleteTodoContext(context.Background(), id)
}

// DeleteTodoContext removes a todo with context support.
func (db *DB) DeleteTodoContext(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return store.Storage("delete todo "+todoKey(id), err)
	}
	return requireAffected(res, "todo", todoKey(id))
}

// ListTodos returns all todos in ascending identifier order.
func (db *DB) ListTodos() ([]schema.Todo, error) {
	return db.ListTodosContext(context.Background())
}

// ListTodosContext returns all todos with context support.
func (db *DB) ListTodosContext(ctx context.Context) ([]schema.Todo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, text, completed, created_at FROM todos ORDER BY id ASC`)
	if err != nil {
		return nil, store.Storage("list todos", err)
	}
	defer rows.Close()

	todos := []schema.Todo{}
	for rows.Next() {
		var todo schema.Todo
		var completed int
		if err := rows.Scan(&todo.ID, &todo.Text, &completed, &todo.CreatedAt); err != nil {
			return nil, store.Storage("scan todo", err)
		}
		todo.Completed = completed != 0
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Storage("iterate todos", err)
	}
	return todos, nil
}

// TodoCount returns the total number of todos.
func (db *DB) TodoCount() (int, error) {
	return db.TodoCountContext(context.Background())
}

// TodoCountContext returns the total number of todos with context support.
func (db *DB) TodoCountContext(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`).Scan(&count); err != nil {
		return 0, store.Storage("count todos", err)
	}
	return count, nil
}

func todoKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
