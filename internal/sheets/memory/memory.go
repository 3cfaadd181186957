// Package memory is an in-process RecordMirror.
package memory

import (
	"context"
	"sync"

	ports "ledger/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	rows   []ports.Row
	writes int
	err    error
}

var _ ports.RecordMirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// ReplaceRows keeps a copy of rows. It returns the error set by FailWith, if any.
func (s *Store) ReplaceRows(ctx context.Context, rows []ports.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append([]ports.Row(nil), rows...)
	s.writes++
	return nil
}

// FailWith makes later writes fail with err; nil restores normal behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Rows returns the last written rows.
func (s *Store) Rows() []ports.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Row(nil), s.rows...)
}

// Writes counts successful ReplaceRows calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
