package store

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		client   bool
		partial  bool
	}{
		{
			name:     "validation",
			err:      Required("title"),
			sentinel: ErrValidation,
			client:   true,
		},
		{
			name:     "not found",
			err:      &NotFoundError{Kind: "task", ID: "task_1"},
			sentinel: ErrNotFound,
		},
		{
			name:     "storage",
			err:      Storage("query tasks", io.ErrUnexpectedEOF),
			sentinel: ErrStorage,
		},
		{
			name:     "malformed",
			err:      &MalformedInputError{Err: io.ErrUnexpectedEOF},
			sentinel: ErrMalformedInput,
			client:   true,
		},
		{
			name:     "mirror failure",
			err:      &MirrorError{Table: "tasks", Err: io.ErrShortWrite},
			sentinel: ErrStorage,
			partial:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("failed to run: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if got := IsClientError(wrapped); got != tt.client {
				t.Errorf("IsClientError() = %v, want %v", got, tt.client)
			}
			if got := IsPartial(wrapped); got != tt.partial {
				t.Errorf("IsPartial() = %v, want %v", got, tt.partial)
			}
		})
	}
}

func TestRequiredMessage(t *testing.T) {
	err := Required("title")
	if err.Error() != "Title is required" {
		t.Errorf("Required() message = %q", err.Error())
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Errorf("expected ValidationError for field title, got %#v", err)
	}
}

func TestStorageNil(t *testing.T) {
	if err := Storage("noop", nil); err != nil {
		t.Errorf("Storage(nil) = %v, want nil", err)
	}
}

func TestUnwrapChain(t *testing.T) {
	err := &MirrorError{Table: "todos", Err: Storage("rename", io.ErrClosedPipe)}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("MirrorError should unwrap to the underlying cause")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("MirrorError must not match ErrNotFound")
	}
}
