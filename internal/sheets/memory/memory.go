package memory

import (
	"context"
	"fmt"
	"sync"

	"budget/internal/core"
	ports "budget/internal/sheets"
)

var _ ports.Exporter = (*Store)(nil)

// Store keeps the most recent exported snapshot in memory.
type Store struct {
	mu      sync.Mutex
	rows    [][]string
	exports int
}

func New() *Store {
	return &Store{}
}

// Export replaces the stored snapshot and returns a synthetic reference.
func (s *Store) Export(_ context.Context, records []core.Record) (string, error) {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return "", fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	rows := ports.Rows(records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.exports++
	return fmt.Sprintf("mem:%d:%d", s.exports, len(records)), nil
}

// Rows returns a copy of the last exported snapshot, header included.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
