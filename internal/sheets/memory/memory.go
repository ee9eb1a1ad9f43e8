// Package memory is an in-process export sink, used in tests and in
// deployments that run the worker without Google credentials.
package memory

import (
	"context"
	"strconv"
	"sync"

	"financas/internal/core"
	"financas/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.TransactionRow
}

var _ sheets.TransactionWriter = (*Store)(nil)

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(ctx context.Context, row core.TransactionRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return strconv.Itoa(len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.TransactionRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.TransactionRow, len(s.rows))
	copy(out, s.rows)
	return out
}
