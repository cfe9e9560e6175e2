// Package mirror writes full-table JSON snapshots of the record store.
//
// Each table is one document (<dir>/<name>.json) holding an ordered array of
// fully-denormalized records. Documents are never patched: every write
// replaces the whole file via temp-file + fsync + rename, so a concurrent
// reader sees either the old document or the new one, never a torn write.
//
// Writers of the same document are serialized by an exclusive lock held for
// the whole write: an in-process mutex plus flock(2) on <dir>/<name>.lock for
// other processes. The lock is released on every exit path.
package mirror

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	stdsync "sync"

	"github.com/Jana-haikel/Task-manager/internal/store"
)

// Extension is the file extension of mirror documents.
const Extension = ".json"

// ErrCorrupt matches a document that exists but cannot be decoded. It is
// always wrapped in a StorageError.
var ErrCorrupt = errors.New("corrupt mirror document")

type corruptError struct {
	err error
}

func (e *corruptError) Error() string { return e.err.Error() }
func (e *corruptError) Unwrap() error { return e.err }
func (e *corruptError) Is(target error) bool { return target == ErrCorrupt }

// Writer owns the mirror documents in one directory.
type Writer struct {
	dir string

	mu    stdsync.Mutex
	locks map[string]*stdsync.Mutex
}

// New creates a Writer for dir, creating the directory if needed.
func New(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, store.Storage("create mirror directory", err)
	}
	return &Writer{
		dir:   dir,
		locks: make(map[string]*stdsync.Mutex),
	}, nil
}

// Dir returns the mirror directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the document path for name.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name+Extension)
}

// WriteSnapshot replaces the document for name with the JSON encoding of
// records. A nil slice is written as [].
func (w *Writer) WriteSnapshot(name string, records any) error {
	data, err := Encode(records)
	if err != nil {
		return store.Storage("encode "+name+" mirror", err)
	}

	unlock, err := w.lock(name + ".lock")
	if err != nil {
		return store.Storage("lock "+name+" mirror", err)
	}
	defer unlock()

	if err := writeFileAtomicDurable(w.Path(name), data, 0644); err != nil {
		return store.Storage("write "+name+" mirror", err)
	}
	return nil
}

// ReadSnapshot decodes the document for name into dst, which should point to
// a slice. A missing document leaves dst untouched and is not an error; an
// unreadable or corrupt document is a StorageError, and a corrupt one also
// matches ErrCorrupt.
func (w *Writer) ReadSnapshot(name string, dst any) error {
	data, err := w.Bytes(name)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return store.Storage("decode "+name+" mirror", &corruptError{err})
	}
	return nil
}

// Records reads the document for name as a slice of T. A missing document
// yields an empty slice.
func Records[T any](w *Writer, name string) ([]T, error) {
	records := []T{}
	if err := w.ReadSnapshot(name, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Count returns the number of records in the document for name. A missing
// document counts as zero.
func (w *Writer) Count(name string) (int, error) {
	var records []json.RawMessage
	if err := w.ReadSnapshot(name, &records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Bytes returns the raw document for name, or nil if it doesn't exist.
func (w *Writer) Bytes(name string) ([]byte, error) {
	data, err := os.ReadFile(w.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, store.Storage("read "+name+" mirror", err)
	}
	return data, nil
}

// ReadDocument decodes a single-object document (settings) into dst.
// Returns false if the document doesn't exist or is empty.
func (w *Writer) ReadDocument(name string, dst any) (bool, error) {
	data, err := w.Bytes(name)
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, store.Storage("decode "+name+" document", &corruptError{err})
	}
	return true, nil
}

// UpdateDocument performs a read-modify-write of a document under its
// exclusive lock. fn receives the current raw bytes (nil when missing) and
// returns the value to write.
func (w *Writer) UpdateDocument(name string, fn func(current []byte) (any, error)) error {
	unlock, err := w.lock(name + ".lock")
	if err != nil {
		return store.Storage("lock "+name+" document", err)
	}
	defer unlock()

	current, err := w.Bytes(name)
	if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	data, err := Encode(next)
	if err != nil {
		return store.Storage("encode "+name+" document", err)
	}
	if err := writeFileAtomicDurable(w.Path(name), data, 0644); err != nil {
		return store.Storage("write "+name+" document", err)
	}
	return nil
}

// LockTable takes the table-level sync lock (<dir>/<table>.sync.lock) that
// serializes a store mutation with the mirror refresh that follows it. It is
// a different file from the document lock, so WriteSnapshot can be called
// while it is held.
func (w *Writer) LockTable(table string) (unlock func(), err error) {
	unlock, err = w.lock(table + ".sync.lock")
	if err != nil {
		return nil, store.Storage("lock "+table+" table", err)
	}
	return unlock, nil
}

// lock acquires the in-process mutex and the cross-process file lock for a
// lock file name.
func (w *Writer) lock(name string) (func(), error) {
	w.mu.Lock()
	m, ok := w.locks[name]
	if !ok {
		m = &stdsync.Mutex{}
		w.locks[name] = m
	}
	w.mu.Unlock()

	m.Lock()
	release, err := lockFile(filepath.Join(w.dir, name))
	if err != nil {
		m.Unlock()
		return nil, err
	}
	return func() {
		_ = release()
		m.Unlock()
	}, nil
}

// Encode renders v the way mirror documents are stored: two-space indent,
// HTML characters left as-is, trailing newline.
func Encode(v any) ([]byte, error) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.IsNil() {
		return []byte("[]\n"), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest returns the hex SHA-256 of a document. A nil document hashes as [].
func Digest(data []byte) string {
	if data == nil {
		data = []byte("[]\n")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeFileAtomicDurable(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
