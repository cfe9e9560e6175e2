package schema

import "github.com/Jana-haikel/Task-manager/internal/store"

// Todo is a todo record. IDs are assigned by the store, increase
// monotonically and are never reused after deletion.
type Todo struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
}

// TodoInput carries the caller-supplied text for create and update.
type TodoInput struct {
	Text string `json:"text"`
}

// Normalize returns the sanitized input.
func (in TodoInput) Normalize() TodoInput {
	return TodoInput{Text: Sanitize(in.Text)}
}

// Validate checks a normalized input.
func (in TodoInput) Validate() error {
	if in.Text == "" {
		return store.Required("text")
	}
	return nil
}
