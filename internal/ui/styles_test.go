package ui

import "testing"

// TestRender_NoColor verifies plain output once color is disabled.
func TestRender_NoColor(t *testing.T) {
	DisableColor()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pass", RenderPass("ok"), "ok"},
		{"fail", RenderFail("bad"), "bad"},
		{"warn", RenderWarn("hmm"), "hmm"},
		{"accent", RenderAccent("id"), "id"},
		{"checkbox done", Checkbox(true), IconDone},
		{"checkbox open", Checkbox(false), IconOpen},
		{"verdict pass", Verdict(true, "in sync", "drifted"), "✓ in sync"},
		{"verdict fail", Verdict(false, "in sync", "drifted"), "✗ drifted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
