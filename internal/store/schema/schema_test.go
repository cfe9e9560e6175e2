package schema

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Jana-haikel/Task-manager/internal/store"
)

func strPtr(s string) *string { return &s }

// TestTaskInput_Normalize tests trimming, escaping and NULL folding
func TestTaskInput_Normalize(t *testing.T) {
	in := TaskInput{
		Title:       "  <b>Plan</b>  ",
		Description: strPtr("   "),
		Deadline:    strPtr(" 2026-10-20 "),
	}
	got := in.Normalize()

	if got.Title != "&lt;b&gt;Plan&lt;/b&gt;" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil", *got.Description)
	}
	if got.Deadline == nil || *got.Deadline != "2026-10-20" {
		t.Errorf("Deadline = %v, want 2026-10-20", got.Deadline)
	}
}

// TestTaskInput_Validate tests required title and deadline format
func TestTaskInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   TaskInput
		field   string
		wantErr bool
	}{
		{name: "valid minimal", input: TaskInput{Title: "Write report"}},
		{name: "valid date", input: TaskInput{Title: "x", Deadline: strPtr("2026-10-20")}},
		{name: "valid minutes", input: TaskInput{Title: "x", Deadline: strPtr("2026-10-20T17:30")}},
		{name: "valid rfc3339", input: TaskInput{Title: "x", Deadline: strPtr("2026-10-20T17:30:00+02:00")}},
		{name: "empty title", input: TaskInput{Title: "   "}, field: "title", wantErr: true},
		{name: "bad deadline", input: TaskInput{Title: "x", Deadline: strPtr("next week")}, field: "deadline", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Normalize().Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, store.ErrValidation) {
				t.Errorf("error %v is not ErrValidation", err)
			}
			var ve *store.ValidationError
			if errors.As(err, &ve) && ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

// TestTaskInput_TitleMessage tests the human-readable message
func TestTaskInput_TitleMessage(t *testing.T) {
	err := TaskInput{Title: ""}.Validate()
	if err == nil || err.Error() != "Title is required" {
		t.Errorf("error = %v, want %q", err, "Title is required")
	}
}

// TestTodoInput_Validate tests the required text rule
func TestTodoInput_Validate(t *testing.T) {
	if err := (TodoInput{Text: " \t"}).Normalize().Validate(); !errors.Is(err, store.ErrValidation) {
		t.Errorf("blank text: error = %v, want ErrValidation", err)
	}
	in := TodoInput{Text: " milk & eggs "}.Normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if in.Text != "milk &amp; eggs" {
		t.Errorf("Text = %q", in.Text)
	}
}

// TestTask_JSONShape tests that optional fields are emitted as null and completed as a boolean
func TestTask_JSONShape(t *testing.T) {
	task := Task{ID: "task_1_abc", Title: "x", CreatedAt: "2026-10-19T08:30:00.000000Z"}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	want := `{"id":"task_1_abc","title":"x","description":null,"deadline":null,"completed":false,"created_at":"2026-10-19T08:30:00.000000Z","updated_at":null}`
	if string(data) != want {
		t.Errorf("json = %s\nwant  %s", data, want)
	}
}

// TestNewTaskID tests the identifier format and uniqueness
func TestNewTaskID(t *testing.T) {
	now := time.Unix(1760000000, 0)
	pattern := regexp.MustCompile(`^task_1760000000_[0-9a-f]{16}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTaskID(now)
		if !pattern.MatchString(id) {
			t.Fatalf("id %q does not match %s", id, pattern)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

// TestNextTimestamp tests that stamps strictly increase
func TestNextTimestamp(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	first := NextTimestamp(now, "")
	if first != "2026-10-19T08:30:00.000000Z" {
		t.Errorf("first = %q", first)
	}

	// Same clock reading must still move forward.
	second := NextTimestamp(now, first)
	if second <= first {
		t.Errorf("second %q not after first %q", second, first)
	}

	// Clock stepping backwards must still move forward.
	third := NextTimestamp(now.Add(-time.Hour), second)
	if third <= second {
		t.Errorf("third %q not after second %q", third, second)
	}

	// A later clock wins outright.
	later := NextTimestamp(now.Add(time.Minute), third)
	if later != "2026-10-19T08:31:00.000000Z" {
		t.Errorf("later = %q", later)
	}
}

// TestSettings_Merge tests the shallow merge and updatedAt stamp
func TestSettings_Merge(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	current := DefaultSettings()

	merged := current.Merge(Settings{"theme": "dark"}, now)

	if merged["theme"] != "dark" {
		t.Errorf("theme = %v, want dark", merged["theme"])
	}
	if merged["showCompleted"] != true {
		t.Errorf("showCompleted = %v, want true", merged["showCompleted"])
	}
	if merged["updatedAt"] != "2026-10-19T08:30:00.000000Z" {
		t.Errorf("updatedAt = %v", merged["updatedAt"])
	}
	if current["theme"] != "light" {
		t.Error("Merge() modified the receiver")
	}

	// Same instant, local zone: still UTC and strictly later.
	local := now.In(time.FixedZone("CEST", 2*60*60))
	again := merged.Merge(Settings{"theme": "light"}, local)
	if again["updatedAt"] != "2026-10-19T08:30:00.000001Z" {
		t.Errorf("second updatedAt = %v, want 2026-10-19T08:30:00.000001Z", again["updatedAt"])
	}
}

// TestSettings_WithDefaults tests default fallback for empty settings
func TestSettings_WithDefaults(t *testing.T) {
	var empty Settings
	got := empty.WithDefaults()
	if got["theme"] != "light" || got["showCompleted"] != true {
		t.Errorf("WithDefaults() = %v", got)
	}

	custom := Settings{"theme": "dark"}
	if custom.WithDefaults()["showCompleted"] != nil {
		t.Error("WithDefaults() should not fill keys into non-empty settings")
	}
}

// TestDecode tests payload decoding and MalformedInputError classification
func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "object", raw: `{"title":"x"}`},
		{name: "padded object", raw: "  {\"title\":\"x\"}\n"},
		{name: "truncated", raw: `{"title":`, wantErr: true},
		{name: "array", raw: `["x"]`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
		{name: "trailing garbage", raw: `{"title":"x"} {}`, wantErr: true},
		{name: "wrong type", raw: `{"title":5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTaskInput([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeTaskInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, store.ErrMalformedInput) {
				t.Errorf("error %v is not ErrMalformedInput", err)
			}
		})
	}
}

// TestDecodeSettingsPatch tests that an empty body is an empty patch
func TestDecodeSettingsPatch(t *testing.T) {
	patch, err := DecodeSettingsPatch([]byte("  "))
	if err != nil || len(patch) != 0 {
		t.Errorf("empty body: patch = %v, err = %v", patch, err)
	}

	patch, err = DecodeSettingsPatch([]byte(`{"theme":"dark","layout":{"cols":2}}`))
	if err != nil {
		t.Fatalf("DecodeSettingsPatch() failed: %v", err)
	}
	if patch["theme"] != "dark" {
		t.Errorf("theme = %v", patch["theme"])
	}

	_, err = DecodeSettingsPatch([]byte(`"dark"`))
	if !errors.Is(err, store.ErrMalformedInput) {
		t.Errorf("string body: error = %v, want ErrMalformedInput", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "invalid JSON") {
		t.Errorf("message = %q", err.Error())
	}
}
