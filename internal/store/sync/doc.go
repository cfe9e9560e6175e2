// Package sync keeps the JSON mirror in step with the record store.
//
// Overview
//
// The record store (SQLite) is the single source of truth for tasks and todos.
// The mirror is a set of JSON documents that external readers consume. The
// two are separate resources with no shared transaction, so this package
// owns the discipline that makes the mirror converge:
//
//	Caller
//	  │
//	  ▼
//	Orchestrator ── (1) mutate ──▶ db.DB (SQLite)
//	  │                               │
//	  │ ◀──── (2) full re-read ───────┘
//	  │
//	  └──── (3) atomic replace ─▶ mirror.Writer ─▶ tasks.json / todos.json
//
// Usage
//
//	database, err := db.Open("data/database.db")
//	if err != nil {
//	    return err
//	}
//	defer database.Close()
//
//	if err := database.InitSchema(); err != nil {
//	    return err
//	}
//
//	w, err := mirror.New("data")
//	if err != nil {
//	    return err
//	}
//
//	orch := sync.New(database, w, nil)
//	id, err := orch.CreateTask(ctx, schema.TaskInput{Title: "Write report"})
//
// Partial success
//
// If the store write commits but the mirror write fails, the operation
// returns *store.MirrorError. The store is not rolled back. Callers can
// distinguish this case with store.IsPartial:
//
//	if err := orch.ToggleTask(ctx, id); store.IsPartial(err) {
//	    // store has the change, mirror is stale until the next sync
//	}
//
// ResyncAll repairs any stale mirror.
//
// Concurrency
//
// Each table has a critical section around steps 1-3: an in-process mutex plus
// a flock on <mirror_dir>/<table>.sync.lock, so concurrent processes sharing a
// data directory serialize per table as well. Tasks and todos do not block each
// other. Settings updates take only the settings document lock.
//
// Drift detection
//
// CheckDrift compares record counts. Equal counts with different records
// still report InSync; enable Config.VerifyContent to also compare SHA-256
// digests of the canonical store encoding and the mirror bytes:
//
//	report, _ := orch.CheckDrift(ctx)
//	if report.ContentInSync != nil && !*report.ContentInSync {
//	    orch.ResyncAll(ctx)
//	}
package sync
