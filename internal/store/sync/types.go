package sync

import (
	"log"
	"os"
	"time"
)

// State is the per-table sync state.
//
//	Clean --mutation--> Dirty --refresh--> Syncing --write ok--> Clean
//	                                          |
//	                                          +--write failed--> Dirty
type State int32

const (
	StateClean State = iota
	StateDirty
	StateSyncing
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// SyncResult reports the record counts written by ResyncAll.
type SyncResult struct {
	Tasks    int           `json:"tasks" yaml:"tasks"`
	Todos    int           `json:"todos" yaml:"todos"`
	Duration time.Duration `json:"-" yaml:"-"`
}

// Counts holds one count per mirrored table.
type Counts struct {
	Tasks int `json:"tasks" yaml:"tasks"`
	Todos int `json:"todos" yaml:"todos"`
}

// Status is the sync status as exposed to callers.
type Status struct {
	SQLite Counts `json:"sqlite" yaml:"sqlite"`
	JSON   Counts `json:"json" yaml:"json"`
	InSync bool   `json:"inSync" yaml:"inSync"`

	// ContentInSync is set only when content verification is enabled.
	ContentInSync *bool `json:"contentInSync,omitempty" yaml:"contentInSync,omitempty"`

	// MirrorErrors maps a table to the decode error of its mirror document.
	MirrorErrors map[string]string `json:"mirrorErrors,omitempty" yaml:"mirrorErrors,omitempty"`
}

// EventKind identifies an orchestrator event.
type EventKind string

const (
	EventMutation EventKind = "mutation"
	EventSync     EventKind = "sync_complete"
	EventDrift    EventKind = "drift"
)

// Event describes one orchestrator step, delivered to the Observer.
type Event struct {
	Kind   EventKind    `json:"kind"`
	Table  string       `json:"table,omitempty"`
	Action string       `json:"action,omitempty"` // create, update, delete, toggle, resync
	ID     string       `json:"id,omitempty"`
	Count  int          `json:"count"`
	Error  string       `json:"error,omitempty"`
	Report *DriftReport `json:"report,omitempty"`
	Time   time.Time    `json:"time"`
}

// Observer receives orchestrator events. OnEvent is called synchronously
// after the step completes and must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Config holds orchestrator options.
type Config struct {
	// Logger for sync progress. Defaults to stderr with a "[sync] " prefix.
	Logger *log.Logger

	// Observer receives mutation, sync and drift events. Optional.
	Observer Observer

	// VerifyContent adds per-table content digests to drift reports.
	VerifyContent bool
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		Logger: log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}
