// Package storage persists the ledger snapshot entries to a key-value medium.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Entry keys of the ledger snapshot.
const (
	KeyCustomers = "customers"
	KeyRecords   = "records"
)

var ErrNotFound = errors.New("snapshot entry not found")

// Store is a key-value medium holding whole serialized snapshot entries.
// Put overwrites the entry in full.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// PersistenceError reports a failed read or write of a snapshot entry.
type PersistenceError struct {
	Op  string // "load" or "persist"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError reports whether err is, or wraps, a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
