package loadtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jana-haikel/Task-manager/internal/store/db"
	"github.com/Jana-haikel/Task-manager/internal/store/mirror"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
	"github.com/Jana-haikel/Task-manager/internal/store/sync"
)

// setupOrchestrator creates a content-verifying orchestrator in a temp dir.
func setupOrchestrator(t *testing.T) (sync.Orchestrator, *db.DB) {
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

	w, err := mirror.New(filepath.Join(tmpDir, "mirror"))
	if err != nil {
		t.Fatalf("Failed to create mirror: %v", err)
	}

	orch := sync.New(database, w, &sync.Config{
		Logger:        log.New(io.Discard, "", 0),
		VerifyContent: true,
	})
	return orch, database
}

// TestRun_Small verifies a small concurrent run converges.
func TestRun_Small(t *testing.T) {
	orch, database := setupOrchestrator(t)

	res, err := Run(context.Background(), orch, Options{Writers: 4, OpsPerWriter: 6, DeleteEvery: 3, Seed: 1})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if res.Stats.Errors != 0 {
		t.Errorf("Got %d errors during run", res.Stats.Errors)
	}
	if res.Created != 24 {
		t.Errorf("Created = %d, want 24", res.Created)
	}
	// Two deletes per writer (ops 3 and 6).
	if res.Deleted != 8 {
		t.Errorf("Deleted = %d, want 8", res.Deleted)
	}
	if !res.Converged {
		t.Errorf("mirror did not converge: %+v", res.Report)
	}
	if res.Report.ContentInSync == nil || !*res.Report.ContentInSync {
		t.Error("content digests should match after the run")
	}

	tasks, err := database.TaskCount()
	if err != nil {
		t.Fatalf("TaskCount() failed: %v", err)
	}
	todos, err := database.TodoCount()
	if err != nil {
		t.Fatalf("TodoCount() failed: %v", err)
	}
	if tasks+todos != res.Created-res.Deleted {
		t.Errorf("store holds %d records, want %d", tasks+todos, res.Created-res.Deleted)
	}

	// create + toggle per record, plus each delete.
	if want := 2*res.Created + res.Deleted; res.Stats.TotalQueries != want {
		t.Errorf("TotalQueries = %d, want %d", res.Stats.TotalQueries, want)
	}
	if res.Throughput() <= 0 {
		t.Error("Throughput() should be positive")
	}
}

// TestRun_Defaults verifies zero options fall back to defaults.
func TestRun_Defaults(t *testing.T) {
	got := withDefaults(Options{DeleteEvery: -1})
	if got.Writers != 10 || got.OpsPerWriter != 20 || got.DeleteEvery != 0 {
		t.Errorf("withDefaults() = %+v", got)
	}
}

// TestRun_CancelledContext verifies a cancelled run reports failure.
func TestRun_CancelledContext(t *testing.T) {
	orch, _ := setupOrchestrator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, orch, Options{Writers: 2, OpsPerWriter: 2})
	if err == nil {
		t.Fatal("Run() with cancelled context should fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// TestRun_DetectsDrift verifies that pre-existing drift fails convergence.
func TestRun_DetectsDrift(t *testing.T) {
	orch, database := setupOrchestrator(t)

	// Write straight to both tables so the mirror never sees them. A single
	// operation refreshes only one table, leaving the other drifted.
	if _, err := database.CreateTask(schema.TaskInput{Title: "behind the mirror's back"}); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	if _, err := database.CreateTodo(schema.TodoInput{Text: "behind the mirror's back"}); err != nil {
		t.Fatalf("CreateTodo() failed: %v", err)
	}

	res, err := Run(context.Background(), orch, Options{Writers: 1, OpsPerWriter: 1})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if res.Converged {
		t.Errorf("Converged = true with drifted store: %+v", res.Report.Tables)
	}
}

// TestComputeLatencyStats verifies percentile math on a known distribution.
func TestComputeLatencyStats(t *testing.T) {
	var durations []time.Duration
	for i := 100; i >= 1; i-- {
		durations = append(durations, time.Duration(i)*time.Millisecond)
	}

	stats := computeLatencyStats(durations)

	if stats.Min != time.Millisecond || stats.Max != 100*time.Millisecond {
		t.Errorf("Min/Max = %v/%v", stats.Min, stats.Max)
	}
	if stats.P50 != 51*time.Millisecond {
		t.Errorf("P50 = %v, want 51ms", stats.P50)
	}
	if stats.P95 != 96*time.Millisecond {
		t.Errorf("P95 = %v, want 96ms", stats.P95)
	}
	if stats.P99 != 100*time.Millisecond {
		t.Errorf("P99 = %v, want 100ms", stats.P99)
	}
	if stats.Mean != 50500*time.Microsecond {
		t.Errorf("Mean = %v, want 50.5ms", stats.Mean)
	}
	if stats.TotalQueries != 100 {
		t.Errorf("TotalQueries = %d", stats.TotalQueries)
	}

	if empty := computeLatencyStats(nil); empty.TotalQueries != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	computeLatencyStats([]time.Duration{time.Millisecond}).PrintStats(&buf)

	if !strings.Contains(buf.String(), "Total Operations: 1") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func BenchmarkRun_10Writers(b *testing.B) {
	tmpDir := b.TempDir()
	database, err := db.Open(filepath.Join(tmpDir, "database.db"))
	if err != nil {
		b.Fatalf("Failed to open test database: %v", err)
	}
	defer database.Close()
	if err := database.InitSchema(); err != nil {
		b.Fatalf("Failed to initialize schema: %v", err)
	}
	w, err := mirror.New(filepath.Join(tmpDir, "mirror"))
	if err != nil {
		b.Fatalf("Failed to create mirror: %v", err)
	}
	orch := sync.New(database, w, &sync.Config{Logger: log.New(io.Discard, "", 0)})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Run(context.Background(), orch, Options{Writers: 10, OpsPerWriter: 5}); err != nil {
			b.Fatalf("Run() failed: %v", err)
		}
	}
}
