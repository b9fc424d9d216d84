// Package kvstore models the device-local key-value storage the report and
// safety stores persist into: string keys mapped to string values.
package kvstore

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates that no storage backend is attached.
	ErrUnavailable = errors.New("kvstore: storage unavailable")
	// ErrEmptyKey indicates that a key was blank.
	ErrEmptyKey = errors.New("kvstore: empty key")
)

// UpdateFunc receives the current value (found reports whether the key exists)
// and returns the value to store.
type UpdateFunc func(current string, found bool) (string, error)

// Store is the contract shared by the in-memory and SQLite backends.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Update performs read-modify-write on a single key as one step.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Keys returns the sorted keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
