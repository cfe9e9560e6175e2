package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jana-haikel/Task-manager/internal/store/db"
	"github.com/Jana-haikel/Task-manager/internal/store/mirror"
)

// TableDrift compares one table across the store and its mirror.
type TableDrift struct {
	StoreCount  int `json:"storeCount" yaml:"storeCount"`
	MirrorCount int `json:"mirrorCount" yaml:"mirrorCount"`

	// MirrorError is set when the mirror document exists but cannot be
	// decoded. The table counts as drifted and MirrorCount is zero.
	MirrorError string `json:"mirrorError,omitempty" yaml:"mirrorError,omitempty"`

	// Populated only when content verification is enabled.
	StoreDigest   string `json:"storeDigest,omitempty" yaml:"storeDigest,omitempty"`
	MirrorDigest  string `json:"mirrorDigest,omitempty" yaml:"mirrorDigest,omitempty"`
	ContentInSync *bool  `json:"contentInSync,omitempty" yaml:"contentInSync,omitempty"`
}

// DriftReport is the result of a consistency check.
type DriftReport struct {
	Tables map[string]TableDrift `json:"perTable" yaml:"perTable"`

	// InSync is true when every table's store and mirror counts are equal
	// and every mirror document decodes.
	InSync bool `json:"inSync" yaml:"inSync"`

	// ContentInSync is true when every table's digests match. Set only when
	// content verification is enabled.
	ContentInSync *bool `json:"contentInSync,omitempty" yaml:"contentInSync,omitempty"`

	CheckedAt time.Time `json:"checkedAt" yaml:"checkedAt"`
}

// Checker compares store-derived counts with mirror-derived counts.
//
// The count comparison is a cheap health check: it cannot see a row replaced
// by a different row. Content verification hashes the canonical store
// encoding and the mirror bytes to catch that case.
//
// Checker takes no locks. A check that races a mutation may report a
// transient mismatch.
type Checker struct {
	db            *db.DB
	mirror        Mirror
	verifyContent bool
}

// NewChecker creates a Checker. With verifyContent set, reports carry
// per-table SHA-256 digests.
func NewChecker(database *db.DB, m Mirror, verifyContent bool) *Checker {
	return &Checker{db: database, mirror: m, verifyContent: verifyContent}
}

// Check builds a drift report for every mirrored table.
func (c *Checker) Check(ctx context.Context) (*DriftReport, error) {
	report := &DriftReport{
		Tables:    make(map[string]TableDrift, len(Tables)),
		InSync:    true,
		CheckedAt: time.Now().UTC(),
	}
	contentInSync := true

	for _, table := range Tables {
		drift, err := c.checkTable(ctx, table)
		if err != nil {
			return nil, err
		}
		report.Tables[table] = drift

		if drift.Drifted() {
			report.InSync = false
		}
		if drift.ContentInSync != nil && !*drift.ContentInSync {
			contentInSync = false
		}
	}

	if c.verifyContent {
		report.ContentInSync = &contentInSync
	}
	return report, nil
}

func (c *Checker) checkTable(ctx context.Context, table string) (TableDrift, error) {
	var drift TableDrift
	var err error

	drift.MirrorCount, err = c.mirror.Count(table)
	if errors.Is(err, mirror.ErrCorrupt) {
		drift.MirrorCount = 0
		drift.MirrorError = err.Error()
	} else if err != nil {
		return drift, err
	}

	if !c.verifyContent {
		drift.StoreCount, err = countTable(ctx, c.db, table)
		return drift, err
	}

	records, n, err := readTable(ctx, c.db, table)
	if err != nil {
		return drift, err
	}
	drift.StoreCount = n

	canonical, err := mirror.Encode(records)
	if err != nil {
		return drift, fmt.Errorf("failed to encode %s: %w", table, err)
	}
	current, err := c.mirror.Bytes(table)
	if err != nil {
		return drift, err
	}

	drift.StoreDigest = mirror.Digest(canonical)
	drift.MirrorDigest = mirror.Digest(current)
	match := drift.StoreDigest == drift.MirrorDigest
	drift.ContentInSync = &match
	return drift, nil
}

// Drifted reports whether the counts differ or the mirror is unreadable.
func (d TableDrift) Drifted() bool {
	return d.MirrorError != "" || d.StoreCount != d.MirrorCount
}

// Status reshapes a drift report into per-side counts.
func (r *DriftReport) Status() *Status {
	var corrupt map[string]string
	for table, d := range r.Tables {
		if d.MirrorError == "" {
			continue
		}
		if corrupt == nil {
			corrupt = make(map[string]string)
		}
		corrupt[table] = d.MirrorError
	}

	return &Status{
		SQLite: Counts{
			Tasks: r.Tables[TableTasks].StoreCount,
			Todos: r.Tables[TableTodos].StoreCount,
		},
		JSON: Counts{
			Tasks: r.Tables[TableTasks].MirrorCount,
			Todos: r.Tables[TableTodos].MirrorCount,
		},
		InSync:        r.InSync,
		ContentInSync: r.ContentInSync,
		MirrorErrors:  corrupt,
	}
}

func countTable(ctx context.Context, database *db.DB, table string) (int, error) {
	switch table {
	case TableTasks:
		return database.TaskCountContext(ctx)
	case TableTodos:
		return database.TodoCountContext(ctx)
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
}

// readTable reads a table from the store in canonical order.
func readTable(ctx context.Context, database *db.DB, table string) (any, int, error) {
	switch table {
	case TableTasks:
		tasks, err := database.ListTasksContext(ctx)
		return tasks, len(tasks), err
	case TableTodos:
		todos, err := database.ListTodosContext(ctx)
		return todos, len(todos), err
	default:
		return nil, 0, fmt.Errorf("unknown table %q", table)
	}
}
