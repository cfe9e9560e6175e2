package daemon

import (
	"fmt"
	"path/filepath"
	"strings"
	stdsync "sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a document was created (including atomic replace).
	OpCreate EventOp = iota
	// OpModify indicates a document was written in place.
	OpModify
	// OpDelete indicates a document was removed or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileEvent is a change to one mirror document.
type FileEvent struct {
	// Path is the path of the document that changed.
	Path string
	// Table is the document name without extension (tasks, todos, settings).
	Table string
	// Op is the operation that occurred.
	Op EventOp
}

// FileWatcher watches the mirror directory for changes to *.json documents.
// Temp files and lock files written by the mirror writer are ignored.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	events  chan FileEvent
	errors  chan error
	done    chan struct{}
	wg      stdsync.WaitGroup
	mu      stdsync.Mutex
	running bool
	dir     string
}

// NewFileWatcher creates a new FileWatcher instance.
// The watcher must be started with Start() before it will emit events.
func NewFileWatcher() (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		events:  make(chan FileEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching dir for document changes.
func (fw *FileWatcher) Start(dir string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("watcher already running")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve mirror directory %s: %w", dir, err)
	}
	if err := fw.watcher.Add(abs); err != nil {
		return fmt.Errorf("failed to watch mirror directory %s: %w", dir, err)
	}
	fw.dir = abs

	fw.running = true
	fw.wg.Add(1)
	go fw.processEvents()

	return nil
}

// Stop stops watching and blocks until the event loop has exited.
// Safe to call on a watcher that was never started.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	wasRunning := fw.running
	fw.running = false
	fw.mu.Unlock()

	if !wasRunning {
		return fw.watcher.Close()
	}

	close(fw.done)

	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	fw.wg.Wait()

	close(fw.events)
	close(fw.errors)

	return nil
}

// Events returns the channel of document events.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

// Errors returns the channel of watcher errors.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

// IsRunning returns true if the watcher is currently running.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fileEvent, ok := fw.convertEvent(event); ok {
				select {
				case fw.events <- fileEvent:
				case <-fw.done:
					return
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case fw.errors <- err:
			case <-fw.done:
				return
			}
		}
	}
}

// convertEvent converts an fsnotify event to a FileEvent.
// Returns false for events that should be ignored.
func (fw *FileWatcher) convertEvent(event fsnotify.Event) (FileEvent, bool) {
	if filepath.Ext(event.Name) != ".json" {
		return FileEvent{}, false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil || filepath.Dir(abs) != fw.dir {
		return FileEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return FileEvent{}, false
	}

	return FileEvent{
		Path:  event.Name,
		Table: strings.TrimSuffix(filepath.Base(event.Name), ".json"),
		Op:    op,
	}, true
}
