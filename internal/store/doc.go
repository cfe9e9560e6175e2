// Package store holds the error taxonomy shared by the task store packages.
//
// # Architecture
//
// The store keeps tasks and todos in an authoritative SQLite database and
// maintains a denormalized JSON mirror of every table for external readers:
//
//	caller (CLI, router)
//	     ↓
//	sync.Orchestrator ── per-table lock ──┐
//	     ├── db.DB          (step 1: mutate, step 2: re-read table)
//	     └── mirror.Writer  (step 3: atomic full-table replace)
//	                                      │
//	sync.Checker  ←── counts / digests ───┘
//
// Subpackages:
//   - schema: Task, Todo and Settings records, sanitation, validation
//   - db: the authoritative record store
//   - mirror: atomic, lock-protected JSON snapshot files
//   - sync: the write-then-mirror orchestrator and the drift checker
//   - daemon: mirror file watcher and scheduled drift audits
//   - dashboard: WebSocket feed of sync events
//   - loadtest: concurrent writer harness that verifies convergence
//
// # Errors
//
// All packages report failures through the sentinels in this package:
//
//	ErrValidation      empty required field, bad deadline
//	ErrNotFound        identifier does not resolve
//	ErrStorage         database or mirror I/O failure
//	ErrMalformedInput  payload is not a well-formed JSON object
//
// A *MirrorError (matches ErrStorage) means the store mutation committed but
// the mirror refresh failed. Use IsPartial to tell it apart from a mutation
// that never happened.
package store
