package daemon

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jana-haikel/Task-manager/internal/store/db"
	"github.com/Jana-haikel/Task-manager/internal/store/mirror"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
	"github.com/Jana-haikel/Task-manager/internal/store/sync"
)

// setupTestOrchestrator creates a store, mirror and orchestrator in a temp dir.
func setupTestOrchestrator(t *testing.T) (sync.Orchestrator, *db.DB, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Open(filepath.Join(tmpDir, "database.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	mirrorDir := filepath.Join(tmpDir, "mirror")
	w, err := mirror.New(mirrorDir)
	if err != nil {
		t.Fatalf("Failed to create mirror: %v", err)
	}

	orch := sync.New(database, w, &sync.Config{Logger: log.New(io.Discard, "", 0)})
	return orch, database, mirrorDir
}

func quietConfig() *Config {
	return &Config{
		DebounceInterval: 20 * time.Millisecond,
		Logger:           log.New(io.Discard, "", 0),
	}
}

// TestNewWithConfig_Validation verifies constructor argument checks.
func TestNewWithConfig_Validation(t *testing.T) {
	orch, _, mirrorDir := setupTestOrchestrator(t)

	if _, err := NewWithConfig(nil, mirrorDir, nil); err == nil {
		t.Error("expected error for nil orchestrator")
	}
	if _, err := NewWithConfig(orch, "", nil); err == nil {
		t.Error("expected error for empty mirrorDir")
	}

	d, err := NewWithConfig(orch, mirrorDir, &Config{})
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	defer d.Stop()
	if d.config.DebounceInterval <= 0 || d.config.Logger == nil || d.config.Location == nil {
		t.Errorf("defaults not applied: %+v", d.config)
	}
}

// TestDefaultConfig verifies default values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AuditSchedule != "@every 5m" {
		t.Errorf("AuditSchedule = %q", cfg.AuditSchedule)
	}
	if cfg.Repair {
		t.Error("Repair should default to false")
	}
	if cfg.DebounceInterval != 250*time.Millisecond {
		t.Errorf("DebounceInterval = %v", cfg.DebounceInterval)
	}
}

// TestAudit_InSync verifies a clean audit.
func TestAudit_InSync(t *testing.T) {
	orch, _, mirrorDir := setupTestOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.CreateTask(ctx, schema.TaskInput{Title: "clean"}); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}

	d, err := NewWithConfig(orch, mirrorDir, quietConfig())
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	defer d.Stop()

	result, err := d.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if result.Drifted {
		t.Errorf("Drifted = true, report %+v", result.Report)
	}
	if d.AuditCount() != 1 || d.LastResult() != result {
		t.Error("audit was not recorded")
	}
}

// TestAudit_ReportOnly verifies that drift is reported but not repaired by default.
func TestAudit_ReportOnly(t *testing.T) {
	orch, database, mirrorDir := setupTestOrchestrator(t)
	ctx := context.Background()

	if _, err := database.CreateTask(schema.TaskInput{Title: "unmirrored"}); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}

	d, err := NewWithConfig(orch, mirrorDir, quietConfig())
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	defer d.Stop()

	result, err := d.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if !result.Drifted {
		t.Error("Drifted = false, want true")
	}
	if result.Repaired != nil {
		t.Error("report-only audit should not repair")
	}

	status, err := orch.Status(ctx)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if status.InSync {
		t.Error("mirror was modified by a report-only audit")
	}
}

// TestAudit_Repair verifies that drift is repaired when enabled.
func TestAudit_Repair(t *testing.T) {
	orch, database, mirrorDir := setupTestOrchestrator(t)
	ctx := context.Background()

	if _, err := database.CreateTodo(schema.TodoInput{Text: "unmirrored"}); err != nil {
		t.Fatalf("CreateTodo() failed: %v", err)
	}

	cfg := quietConfig()
	cfg.Repair = true
	d, err := NewWithConfig(orch, mirrorDir, cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	defer d.Stop()

	result, err := d.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if result.Repaired == nil || result.Repaired.Todos != 1 {
		t.Errorf("Repaired = %+v, want todos=1", result.Repaired)
	}

	status, err := orch.Status(ctx)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if !status.InSync {
		t.Error("mirror still drifted after repair")
	}
}

// TestAudit_RepairsCorruptMirror verifies that a truncated mirror document
// is reported as drift and rewritten when repair is enabled.
func TestAudit_RepairsCorruptMirror(t *testing.T) {
	orch, _, mirrorDir := setupTestOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.CreateTask(ctx, schema.TaskInput{Title: "keep me"}); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	tasksPath := filepath.Join(mirrorDir, "tasks.json")
	if err := os.WriteFile(tasksPath, []byte(`[{"id":"x",`), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	tests := []struct {
		name   string
		repair bool
	}{
		{"report only", false},
		{"repair", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quietConfig()
			cfg.Repair = tt.repair
			d, err := NewWithConfig(orch, mirrorDir, cfg)
			if err != nil {
				t.Fatalf("NewWithConfig() failed: %v", err)
			}
			defer d.Stop()

			result, err := d.Audit(ctx)
			if err != nil {
				t.Fatalf("Audit() failed: %v", err)
			}
			if !result.Drifted {
				t.Error("corrupt mirror not reported as drift")
			}
			if result.Report.Tables[sync.TableTasks].MirrorError == "" {
				t.Error("MirrorError not set for tasks")
			}
			if !tt.repair {
				if result.Repaired != nil {
					t.Error("report-only audit repaired the mirror")
				}
				return
			}
			if result.Repaired == nil || result.Repaired.Tasks != 1 {
				t.Fatalf("Repaired = %+v, want tasks=1", result.Repaired)
			}

			w, err := mirror.New(mirrorDir)
			if err != nil {
				t.Fatalf("mirror.New() failed: %v", err)
			}
			tasks, err := mirror.Records[schema.Task](w, "tasks")
			if err != nil {
				t.Fatalf("tasks mirror still unreadable: %v", err)
			}
			if len(tasks) != 1 || tasks[0].Title != "keep me" {
				t.Errorf("tasks mirror = %+v", tasks)
			}
		})
	}
}

// TestStart_InvalidSchedule verifies that a bad cron spec fails Start.
func TestStart_InvalidSchedule(t *testing.T) {
	orch, _, mirrorDir := setupTestOrchestrator(t)

	cfg := quietConfig()
	cfg.AuditSchedule = "every now and then"
	d, err := NewWithConfig(orch, mirrorDir, cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Error("Start() should fail with an invalid schedule")
	}
}

// TestDaemon_RepairsExternalDeletion verifies the watch path end to end:
// deleting a mirror document triggers an audit that restores it.
func TestDaemon_RepairsExternalDeletion(t *testing.T) {
	orch, _, mirrorDir := setupTestOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.CreateTask(ctx, schema.TaskInput{Title: "precious"}); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}

	cfg := quietConfig()
	cfg.Repair = true
	d, err := NewWithConfig(orch, mirrorDir, cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}

	audits := make(chan AuditResult, 16)
	d.OnAudit(func(r AuditResult) {
		select {
		case audits <- r:
		default:
		}
	})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- d.Start(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Startup audit.
	select {
	case r := <-audits:
		if r.Trigger != "startup" {
			t.Fatalf("first audit trigger = %s, want startup", r.Trigger)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for startup audit")
	}

	// Let the watcher attach before touching the mirror.
	deadline := time.Now().Add(3 * time.Second)
	for !d.watcher.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := os.Remove(filepath.Join(mirrorDir, "tasks.json")); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case r := <-audits:
			if r.Trigger == "watch" && r.Repaired != nil {
				if r.Repaired.Tasks != 1 {
					t.Errorf("Repaired.Tasks = %d, want 1", r.Repaired.Tasks)
				}
				if _, err := os.Stat(filepath.Join(mirrorDir, "tasks.json")); err != nil {
					t.Errorf("tasks mirror not restored: %v", err)
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for repair audit")
		}
	}
}
