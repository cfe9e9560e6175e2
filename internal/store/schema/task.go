package schema

import (
	"strings"

	"github.com/Jana-haikel/Task-manager/internal/store"
)

// Task is a task record as read from the store and written to the mirror.
//
// Optional fields are pointers so they serialize as null, keeping every
// mirror record fully denormalized with the same set of keys.
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Deadline    *string `json:"deadline"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

// TaskInput carries the caller-supplied fields for create and update.
type TaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
}

// Normalize returns a sanitized copy of the input: title and description are
// trimmed and HTML-escaped, the deadline is trimmed and otherwise kept verbatim.
func (in TaskInput) Normalize() TaskInput {
	out := TaskInput{
		Title:       Sanitize(in.Title),
		Description: SanitizeOptional(in.Description),
	}
	if in.Deadline != nil {
		if d := strings.TrimSpace(*in.Deadline); d != "" {
			out.Deadline = &d
		}
	}
	return out
}

// Validate checks a normalized input.
func (in TaskInput) Validate() error {
	if in.Title == "" {
		return store.Required("title")
	}
	if in.Deadline != nil && !ValidDeadline(*in.Deadline) {
		return &store.ValidationError{
			Field:   "deadline",
			Message: "Deadline must be an ISO-8601 date or date-time",
		}
	}
	return nil
}

// Stats summarizes task completion.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}
