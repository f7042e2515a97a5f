package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrEmptyInput is returned when a submission has no text after trimming.
	ErrEmptyInput = errors.New("no reflection entered")

	// ErrNotFound is returned for static resources that do not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrLockTimeout is wrapped by StorageWriteError when the store lock
	// could not be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for store lock")

	// ErrNotWatchable is returned when the repository cannot report changes.
	ErrNotWatchable = errors.New("repository does not support watching")
)

// ValidationError rejects a submission for a reason the user can act on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// CorruptStoreError describes a backing document that exists but cannot be
// decoded. Stores log and count it; List never returns it.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt reflection store %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}

// StorageWriteError means the append did not reach storage.
// The entry must not be considered saved.
type StorageWriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err is a user-input rejection (empty or invalid)
// rather than a storage failure.
func IsRejected(err error) bool {
	if errors.Is(err, ErrEmptyInput) {
		return true
	}
	var verr *ValidationError
	return errors.As(err, &verr)
}
