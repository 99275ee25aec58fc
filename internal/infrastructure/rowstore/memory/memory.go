// Package memory is a process-local ports.RowStore used for development and tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore"
)

type entry struct {
	id    int
	cells []string
}

// Store keeps tables in memory. Tables come into existence on first append
// unless the store was created with Strict, in which case they must be
// provisioned with CreateTable.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]entry
	nextID int
	strict bool
}

// Option configures a Store.
type Option func(*Store)

// Strict makes Append fail with domain.ErrTableNotFound for unknown tables.
func Strict() Option {
	return func(s *Store) { s.strict = true }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{tables: make(map[string][]entry)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateTable provisions an empty table.
func (s *Store) CreateTable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		s.tables[name] = nil
	}
}

// Seed appends raw rows without schema validation. Intended for tests that
// need legacy or malformed rows.
func (s *Store) Seed(table string, rows ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.nextID++
		s.tables[table] = append(s.tables[table], entry{id: s.nextID, cells: append([]string(nil), r...)})
	}
}

func (s *Store) Fetch(_ context.Context, table ports.TableSchema) ([]ports.StoredRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.tables[table.Name]
	if !ok && s.strict {
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, table.Name)
	}

	out := make([]ports.StoredRow, len(entries))
	for i, e := range entries {
		out[i] = ports.StoredRow{
			Locator: strconv.Itoa(e.id),
			Cells:   append([]string(nil), e.cells...),
		}
	}
	return out, nil
}

func (s *Store) Append(_ context.Context, table ports.TableSchema, row []string) error {
	cells, err := rowstore.Fit(table, row)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[table.Name]; !ok && s.strict {
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, table.Name)
	}
	s.nextID++
	s.tables[table.Name] = append(s.tables[table.Name], entry{id: s.nextID, cells: cells})
	return nil
}

func (s *Store) Replace(_ context.Context, table ports.TableSchema, locator string, row []string) error {
	cells, err := rowstore.Fit(table, row)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.index(table.Name, locator)
	if err != nil {
		return err
	}
	s.tables[table.Name][i].cells = cells
	return nil
}

func (s *Store) Delete(_ context.Context, table ports.TableSchema, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.index(table.Name, locator)
	if err != nil {
		return err
	}
	entries := s.tables[table.Name]
	s.tables[table.Name] = append(entries[:i], entries[i+1:]...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) index(table, locator string) (int, error) {
	id, err := strconv.Atoi(locator)
	if err != nil {
		return 0, fmt.Errorf("memory store: bad locator %q", locator)
	}
	for i, e := range s.tables[table] {
		if e.id == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("memory store: row %s not found in %s", locator, table)
}
