//go:build !unix

package mirror

import "os"

// lockFile creates the lock file but takes no OS lock. Writers in the same
// process are still serialized by the Writer's mutex.
func lockFile(path string) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return f.Close, nil
}
