// Package memory is an in-process sheets.Exporter used for dry runs and tests.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Store keeps exported rows per sheet name.
type Store struct {
	mu     sync.Mutex
	base   string
	sheets map[string][][]any
}

var _ sheets.Exporter = (*Store)(nil)

// New creates an empty store whose sheets are named after base.
func New(base string) *Store {
	if base == "" {
		base = "Transactions"
	}
	return &Store{base: base, sheets: make(map[string][][]any)}
}

// Export appends rows the way the spreadsheet exporter does, header first.
func (s *Store) Export(_ context.Context, period core.Period, ts []core.Transaction) (sheets.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := sheets.SheetName(s.base, period.Year)
	rows := s.sheets[name]

	existing := make(map[string]struct{}, len(rows))
	for _, row := range rows[min(1, len(rows)):] {
		if id, ok := row[len(row)-1].(string); ok {
			existing[id] = struct{}{}
		}
	}

	pending, skipped := sheets.Pending(period, ts, existing)
	if len(rows) == 0 {
		rows = append(rows, sheets.Header)
	}
	s.sheets[name] = append(rows, pending...)
	return sheets.Result{Sheet: name, Appended: len(pending), Skipped: skipped}, nil
}

// Rows returns a copy of a sheet's rows, header included.
func (s *Store) Rows(sheet string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.sheets[sheet]))
	copy(out, s.sheets[sheet])
	return out
}
