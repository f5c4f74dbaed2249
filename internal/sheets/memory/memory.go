// Package memory keeps exported tables in process, for tests and for
// running without a spreadsheet.
package memory

import (
	"context"
	"errors"
	"sync"

	"finplan/internal/sheets"
)

var ErrEmptyTitle = errors.New("table title is required")

type Store struct {
	mu     sync.Mutex
	tables map[string]sheets.Table
	order  []string
}

var _ sheets.TableWriter = (*Store)(nil)

func New() *Store {
	return &Store{tables: make(map[string]sheets.Table)}
}

// WriteTable stores t under its title, replacing any earlier table with the
// same title, and returns the range it would occupy in a sheet.
func (s *Store) WriteTable(_ context.Context, t sheets.Table) (string, error) {
	if t.Title == "" {
		return "", ErrEmptyTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[t.Title]; !ok {
		s.order = append(s.order, t.Title)
	}
	s.tables[t.Title] = t
	return "mem:" + sheets.A1Range(t.Title, len(t.Rows)+1, len(t.Header)), nil
}

// Table returns the table stored under title.
func (s *Store) Table(title string) (sheets.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[title]
	return t, ok
}

// Titles lists stored tables in first-write order.
func (s *Store) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
