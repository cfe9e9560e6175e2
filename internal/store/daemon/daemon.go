// Package daemon audits the JSON mirror against the record store.
//
// The daemon:
//  1. Watches the mirror directory for document changes (including edits and
//     deletions made by other tools)
//  2. Debounces bursts of changes into a single drift audit
//  3. Runs the same audit on a cron schedule
//  4. Optionally repairs drift with a full resync
//
// Repair is off by default: the daemon reports drift and leaves the mirror
// alone unless asked.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	stdsync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Jana-haikel/Task-manager/internal/store/sync"
)

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long a document must be quiet before its
	// change triggers an audit. This batches rapid updates together.
	DebounceInterval time.Duration

	// AuditSchedule is a five-field cron spec or a descriptor such as
	// "@every 5m". Empty disables scheduled audits.
	AuditSchedule string

	// Location for the cron schedule. Defaults to time.Local.
	Location *time.Location

	// Repair runs ResyncAll when an audit finds drift.
	Repair bool

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 250 * time.Millisecond,
		AuditSchedule:    "@every 5m",
		Location:         time.Local,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// AuditResult is the outcome of one audit.
type AuditResult struct {
	Report   *sync.DriftReport
	Drifted  bool
	Repaired *sync.SyncResult
	Trigger  string // startup, watch, schedule, manual
}

// Daemon watches the mirror and runs drift audits.
type Daemon struct {
	orch      sync.Orchestrator
	mirrorDir string
	config    *Config

	watcher *FileWatcher
	cron    *cron.Cron

	changeQueue   map[string]time.Time // table -> last change
	changeQueueMu stdsync.Mutex

	auditMu    stdsync.Mutex
	lastResult *AuditResult
	audits     int
	onAudit    func(AuditResult)

	ctx    context.Context
	cancel context.CancelFunc
	wg     stdsync.WaitGroup
}

// New creates a Daemon with the default configuration.
func New(orch sync.Orchestrator, mirrorDir string) (*Daemon, error) {
	return NewWithConfig(orch, mirrorDir, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(orch sync.Orchestrator, mirrorDir string, config *Config) (*Daemon, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if mirrorDir == "" {
		return nil, fmt.Errorf("mirrorDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultConfig().DebounceInterval
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	watcher, err := NewFileWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		orch:        orch,
		mirrorDir:   mirrorDir,
		config:      config,
		watcher:     watcher,
		cron:        cron.New(cron.WithLocation(config.Location), cron.WithLogger(cron.PrintfLogger(config.Logger))),
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// OnAudit registers a callback invoked after every audit. Must be called
// before Start.
func (d *Daemon) OnAudit(fn func(AuditResult)) {
	d.onAudit = fn
}

// Start begins the daemon's operation.
//
// The daemon will:
//  1. Run an initial audit
//  2. Start watching the mirror directory
//  3. Schedule periodic audits
//  4. Process document changes with debouncing
//
// This blocks until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if _, err := d.audit(d.ctx, "startup"); err != nil {
		return fmt.Errorf("initial audit failed: %w", err)
	}

	if d.config.AuditSchedule != "" {
		_, err := d.cron.AddFunc(d.config.AuditSchedule, func() {
			if _, err := d.audit(d.ctx, "schedule"); err != nil {
				d.config.Logger.Printf("Scheduled audit failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid audit schedule %q: %w", d.config.AuditSchedule, err)
		}
	}

	if err := d.watcher.Start(d.mirrorDir); err != nil {
		return err
	}
	d.config.Logger.Printf("Watching: %s", d.mirrorDir)

	d.cron.Start()

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	<-d.cron.Stop().Done()

	if err := d.watcher.Stop(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// Audit runs a drift check now and repairs if configured.
func (d *Daemon) Audit(ctx context.Context) (*AuditResult, error) {
	return d.audit(ctx, "manual")
}

// LastResult returns the most recent audit result, or nil.
func (d *Daemon) LastResult() *AuditResult {
	d.auditMu.Lock()
	defer d.auditMu.Unlock()
	return d.lastResult
}

// AuditCount returns how many audits have completed.
func (d *Daemon) AuditCount() int {
	d.auditMu.Lock()
	defer d.auditMu.Unlock()
	return d.audits
}

func (d *Daemon) audit(ctx context.Context, trigger string) (*AuditResult, error) {
	result, err := d.runAudit(ctx, trigger)
	if err == nil && d.onAudit != nil {
		d.onAudit(*result)
	}
	return result, err
}

func (d *Daemon) runAudit(ctx context.Context, trigger string) (*AuditResult, error) {
	d.auditMu.Lock()
	defer d.auditMu.Unlock()

	report, err := d.orch.CheckDrift(ctx)
	if err != nil {
		return nil, err
	}

	result := &AuditResult{
		Report:  report,
		Drifted: !report.InSync || (report.ContentInSync != nil && !*report.ContentInSync),
		Trigger: trigger,
	}

	if result.Drifted {
		d.config.Logger.Printf("Drift detected (%s audit)", trigger)
		if d.config.Repair {
			synced, err := d.orch.ResyncAll(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to repair drift: %w", err)
			}
			result.Repaired = synced
			d.config.Logger.Printf("Repaired drift: tasks=%d, todos=%d", synced.Tasks, synced.Todos)
		}
	}

	d.lastResult = result
	d.audits++
	return result, nil
}

// watchFileEvents moves watcher events into the change queue.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	events := d.watcher.Events()
	errs := d.watcher.Errors()
	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !isMirrored(event.Table) {
				continue
			}
			d.config.Logger.Printf("File event: %s %s", event.Op, event.Path)
			d.queueChange(event.Table)

		case err, ok := <-errs:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// isMirrored reports whether a document belongs to a table the checker
// audits. Settings changes have no store counterpart and are skipped.
func isMirrored(table string) bool {
	for _, t := range sync.Tables {
		if t == table {
			return true
		}
	}
	return false
}

func (d *Daemon) queueChange(table string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[table] = time.Now()
}

func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges runs one audit for all changes that have been quiet
// for the debounce interval.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	now := time.Now()
	var ready []string
	for table, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		ready = append(ready, table)
		delete(d.changeQueue, table)
	}
	d.changeQueueMu.Unlock()

	if len(ready) == 0 {
		return
	}

	d.config.Logger.Printf("Processing changes: %v", ready)
	if _, err := d.audit(d.ctx, "watch"); err != nil {
		d.config.Logger.Printf("Audit failed: %v", err)
	}
}
