// Package memory keeps sheet rows in process. The worker falls back to it
// when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"khetbook/internal/ledger"
	"khetbook/internal/sheets"
)

var _ sheets.Ledger = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string][]any
}

func New() *Store {
	return &Store{rows: map[string][]any{}}
}

func (s *Store) UpsertRecord(_ context.Context, accountID string, r ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.rows[r.ID] = sheets.Row(accountID, r)
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[recordID]; !ok {
		return nil
	}
	delete(s.rows, recordID)
	for i, id := range s.order {
		if id == recordID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns the rows in insertion order, header first.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, 0, len(s.order)+1)
	out = append(out, sheets.Header)
	for _, id := range s.order {
		out = append(out, append([]any(nil), s.rows[id]...))
	}
	return out
}
