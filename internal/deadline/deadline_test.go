package deadline

import (
	"errors"
	"testing"
	"time"

	"github.com/Jana-haikel/Task-manager/internal/store"
)

func TestParse(t *testing.T) {
	// Wednesday.
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty", input: "  ", want: ""},
		{name: "iso date kept", input: "2026-04-01", want: "2026-04-01"},
		{name: "iso datetime kept", input: " 2026-04-01T09:30 ", want: "2026-04-01T09:30"},
		{name: "rfc3339 kept", input: "2026-04-01T09:30:00+02:00", want: "2026-04-01T09:30:00+02:00"},
		{name: "tomorrow at time", input: "tomorrow at 5pm", want: "2026-03-05T17:00:00"},
		{name: "gibberish", input: "whenever, really", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, now)
			if tt.wantErr {
				if !errors.Is(err, store.ErrValidation) {
					t.Fatalf("Parse(%q) error = %v, want validation error", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
