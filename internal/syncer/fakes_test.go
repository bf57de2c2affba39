package syncer

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
)

type memEntries struct {
	mu   sync.Mutex
	rows map[models.Key]*models.Entry

	listErr error
}

func newMemEntries(entries ...models.Entry) *memEntries {
	m := &memEntries{rows: make(map[models.Key]*models.Entry)}
	for i := range entries {
		e := entries[i]
		m.rows[e.Key()] = &e
	}
	return m
}

func (m *memEntries) ListUnsynced(ctx context.Context) ([]*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Entry
	for _, e := range m.rows {
		if !e.Synced {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (m *memEntries) Get(ctx context.Context, date string, slot models.TimeSlot) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[models.Key{Date: date, Slot: slot}]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (m *memEntries) MarkSynced(ctx context.Context, date string, slot models.TimeSlot, updatedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[models.Key{Date: date, Slot: slot}]
	if !ok || e.UpdatedAt != updatedAt {
		return false, nil
	}
	e.Synced = true
	return true, nil
}

func (m *memEntries) ApplyRemote(ctx context.Context, date string, slot models.TimeSlot, sev models.Severity, updatedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := models.Key{Date: date, Slot: slot}
	if e, ok := m.rows[k]; ok && e.UpdatedAt >= updatedAt {
		return false, nil
	}
	m.rows[k] = &models.Entry{Date: date, Slot: slot, Severity: sev, UpdatedAt: updatedAt, Synced: true}
	return true, nil
}

func (m *memEntries) get(date string, slot models.TimeSlot) *models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.rows[models.Key{Date: date, Slot: slot}]; ok {
		c := *e
		return &c
	}
	return nil
}

// memSheet is a value grid that behaves like the A:I range of a real sheet.
type memSheet struct {
	mu    sync.Mutex
	grid  [][]any
	reads int
	calls []string

	readErr   error
	writeErr  error
	appendErr error
	failAt    int

	found   *sheets.Location
	findErr error
	created []string
}

func newMemSheet(rows ...[]any) *memSheet {
	grid := [][]any{sheets.HeaderRow}
	grid = append(grid, rows...)
	return &memSheet{grid: grid}
}

func (s *memSheet) ReadAll(ctx context.Context, loc sheets.Location, identity string) ([]models.RemoteRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	cp := make([][]any, len(s.grid))
	for i, r := range s.grid {
		cp[i] = append([]any(nil), r...)
	}
	return sheets.ParseRows(cp), nil
}

func (s *memSheet) WriteCell(ctx context.Context, loc sheets.Location, identity string, cell sheets.CellAddress, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil && len(s.calls) >= s.failAt {
		return s.writeErr
	}
	s.calls = append(s.calls, string(cell))

	col := int(cell[0] - 'A')
	row, err := strconv.Atoi(string(cell[1:]))
	if err != nil {
		return err
	}
	for len(s.grid) < row {
		s.grid = append(s.grid, nil)
	}
	r := s.grid[row-1]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	s.grid[row-1] = r
	return nil
}

func (s *memSheet) AppendRow(ctx context.Context, loc sheets.Location, identity string, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.calls = append(s.calls, "append")
	s.grid = append(s.grid, values)
	return nil
}

func (s *memSheet) FindByTitle(ctx context.Context, identity, title string) (sheets.Location, bool, error) {
	if s.findErr != nil {
		return sheets.Location{}, false, s.findErr
	}
	if s.found == nil {
		return sheets.Location{}, false, nil
	}
	return *s.found, true, nil
}

func (s *memSheet) Create(ctx context.Context, identity, title string) (sheets.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, title)
	s.grid = nil
	return sheets.Location{URL: sheets.URLForID("new-id"), SpreadsheetID: "new-id"}, nil
}

func (s *memSheet) writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *memSheet) row(n int) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n-1 >= len(s.grid) {
		return nil
	}
	return s.grid[n-1]
}

type memSettings struct {
	values map[string]string
	err    error
}

func (m *memSettings) Get(ctx context.Context, key string) (*string, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *memSettings) Set(ctx context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}
