package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// waitForEvent waits for an event on the watcher matching table and op.
func waitForEvent(t *testing.T, fw *FileWatcher, table string, op EventOp) FileEvent {
	t.Helper()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-fw.Events():
			if !ok {
				t.Fatal("events channel closed")
			}
			if ev.Table == table && ev.Op == op {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s %s", op, table)
		}
	}
}

// TestNewFileWatcher verifies that creating a new FileWatcher succeeds.
func TestNewFileWatcher(t *testing.T) {
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if fw.IsRunning() {
		t.Error("Newly created watcher should not be running")
	}
}

// TestFileWatcher_StartStop verifies that the watcher can start and stop cleanly.
func TestFileWatcher_StartStop(t *testing.T) {
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}

	if err := fw.Start(t.TempDir()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !fw.IsRunning() {
		t.Error("Watcher should be running after Start()")
	}

	if err := fw.Start(t.TempDir()); err == nil {
		t.Error("second Start() should fail")
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if fw.IsRunning() {
		t.Error("Watcher should not be running after Stop()")
	}
}

// TestFileWatcher_MissingDirectory verifies that watching a missing directory fails.
func TestFileWatcher_MissingDirectory(t *testing.T) {
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if err := fw.Start(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Start() on a missing directory should fail")
	}
}

// TestFileWatcher_DocumentEvents verifies create and delete events for mirror documents.
func TestFileWatcher_DocumentEvents(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer fw.Stop()

	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte("[]\n"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	ev := waitForEvent(t, fw, "tasks", OpCreate)
	if ev.Path != path {
		t.Errorf("Path = %q, want %q", ev.Path, path)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	waitForEvent(t, fw, "tasks", OpDelete)
}

// TestConvertEvent verifies filtering and op mapping.
func TestConvertEvent(t *testing.T) {
	dir := t.TempDir()
	fw := &FileWatcher{dir: dir}

	tests := []struct {
		name      string
		event     fsnotify.Event
		wantOK    bool
		wantTable string
		wantOp    EventOp
	}{
		{
			name:      "create document",
			event:     fsnotify.Event{Name: filepath.Join(dir, "tasks.json"), Op: fsnotify.Create},
			wantOK:    true,
			wantTable: "tasks",
			wantOp:    OpCreate,
		},
		{
			name:      "write document",
			event:     fsnotify.Event{Name: filepath.Join(dir, "todos.json"), Op: fsnotify.Write},
			wantOK:    true,
			wantTable: "todos",
			wantOp:    OpModify,
		},
		{
			name:      "rename away",
			event:     fsnotify.Event{Name: filepath.Join(dir, "todos.json"), Op: fsnotify.Rename},
			wantOK:    true,
			wantTable: "todos",
			wantOp:    OpDelete,
		},
		{
			name:  "temp file",
			event: fsnotify.Event{Name: filepath.Join(dir, "tasks.json.tmp.123"), Op: fsnotify.Create},
		},
		{
			name:  "lock file",
			event: fsnotify.Event{Name: filepath.Join(dir, "tasks.lock"), Op: fsnotify.Create},
		},
		{
			name:  "chmod only",
			event: fsnotify.Event{Name: filepath.Join(dir, "tasks.json"), Op: fsnotify.Chmod},
		},
		{
			name:  "other directory",
			event: fsnotify.Event{Name: filepath.Join(dir, "sub", "tasks.json"), Op: fsnotify.Create},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fw.convertEvent(tt.event)
			if ok != tt.wantOK {
				t.Fatalf("convertEvent() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Table != tt.wantTable || got.Op != tt.wantOp {
				t.Errorf("convertEvent() = %+v, want table %s op %s", got, tt.wantTable, tt.wantOp)
			}
		})
	}
}

// TestEventOp_String verifies op names.
func TestEventOp_String(t *testing.T) {
	tests := map[EventOp]string{
		OpCreate:   "create",
		OpModify:   "modify",
		OpDelete:   "delete",
		EventOp(9): "unknown",
	}
	for op, want := range tests {
		if got := op.String(); got != want {
			t.Errorf("EventOp(%d).String() = %q, want %q", op, got, want)
		}
	}
}
