package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for the store taxonomy.
//
// Every typed error below matches exactly one of these with errors.Is:
//
//	if errors.Is(err, store.ErrNotFound) {
//	    // identifier did not resolve
//	}
var (
	// ErrValidation is returned when a required field is missing or empty
	// after trimming, or a field value is not acceptable.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an identifier does not resolve to an
	// existing record.
	ErrNotFound = errors.New("not found")

	// ErrStorage is returned when the record store or a mirror document
	// cannot be read or written.
	ErrStorage = errors.New("storage failure")

	// ErrMalformedInput is returned when a request payload is not
	// well-formed. It is raised before anything reaches the store.
	ErrMalformedInput = errors.New("malformed input")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Required builds the ValidationError for an empty required field.
func Required(field string) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s is required", titleCase(field)),
	}
}

// NotFoundError reports an identifier that resolved to nothing.
type NotFoundError struct {
	Kind string // "task" or "todo"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps an underlying database or file system failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Storage wraps err as a StorageError. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// MalformedInputError wraps a payload decoding failure.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("invalid JSON: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// MirrorError reports a partial success: the store mutation committed but the
// mirror refresh that follows it failed. The store is not rolled back, so the
// table stays drifted until the next successful sync.
type MirrorError struct {
	Table string
	Err   error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("store updated but %s mirror refresh failed: %v", e.Table, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}

func (e *MirrorError) Is(target error) bool {
	return target == ErrStorage
}

// IsPartial returns true if err means the store committed but the mirror did not.
func IsPartial(err error) bool {
	var me *MirrorError
	return errors.As(err, &me)
}

// IsClientError returns true if the error was caused by the caller's input
// (validation or malformed payload) rather than by storage.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrMalformedInput)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
