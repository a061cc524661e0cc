package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finanzas/internal/sheets"
)

// Sheet keeps appended rows in memory. Rows with an EventID already seen
// are not appended twice.
type Sheet struct {
	mu   sync.Mutex
	rows []sheets.Row
	seen map[string]int
}

var _ sheets.RowAppender = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{seen: make(map[string]int)}
}

func (s *Sheet) AppendRow(_ context.Context, r sheets.Row) (string, error) {
	if r.EventID == "" {
		return "", errors.New("row has no event id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.seen[r.EventID]; ok {
		return fmt.Sprintf("mem:%d", idx), nil
	}
	s.rows = append(s.rows, r)
	s.seen[r.EventID] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Sheet) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
