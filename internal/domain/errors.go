package domain

import (
	"errors"
	"fmt"
)

// ErrLocalStorage marks a failed write to the device-local store.
var ErrLocalStorage = errors.New("local storage unavailable")

// ErrNoRemoteStore is returned when a signed-in owner needs a remote
// store but none is configured.
var ErrNoRemoteStore = errors.New("remote storage is not configured")

// StorageErrorKind distinguishes remote failures for retry decisions.
type StorageErrorKind string

const (
	KindNetwork StorageErrorKind = "network"
	KindAuth    StorageErrorKind = "auth"
	KindServer  StorageErrorKind = "server"
)

// StorageError is a failure reported by a remote reflection store.
type StorageError struct {
	Kind StorageErrorKind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same call may succeed.
// Auth failures need a new session first.
func (e *StorageError) Retryable() bool {
	return e.Kind != KindAuth
}

// AsStorageError extracts a *StorageError from err's chain.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
