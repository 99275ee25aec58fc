// Package xlsxfile implements ports.RowStore on a local .xlsx workbook.
//
// Each table is a worksheet with a header row; missing workbooks and
// worksheets are created on first append. A row's locator is its 1-based
// worksheet row number.
package xlsxfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore"
)

const defaultSheet = "Sheet1"

// Store serialises access to a single workbook file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store backed by the workbook at path.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Fetch(_ context.Context, table ports.TableSchema) ([]ports.StoredRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), table.Name) {
		return nil, nil
	}
	all, err := f.GetRows(table.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStoreUnavailable, table.Name, err)
	}
	if len(all) <= 1 {
		return nil, nil
	}

	rows := make([]ports.StoredRow, 0, len(all)-1)
	for i, cells := range all[1:] {
		rows = append(rows, ports.StoredRow{Locator: strconv.Itoa(i + 2), Cells: cells})
	}
	return rows, nil
}

func (s *Store) Append(_ context.Context, table ports.TableSchema, row []string) error {
	cells, err := rowstore.Fit(table, row)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	if f == nil {
		f = excelize.NewFile()
	}
	defer f.Close()

	if err := ensureSheet(f, table); err != nil {
		return err
	}
	existing, err := f.GetRows(table.Name)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrStoreUnavailable, table.Name, err)
	}
	if err := setRow(f, table.Name, len(existing)+1, cells); err != nil {
		return err
	}
	return s.save(f)
}

func (s *Store) Replace(_ context.Context, table ports.TableSchema, locator string, row []string) error {
	cells, err := rowstore.Fit(table, row)
	if err != nil {
		return err
	}
	n, err := rowNumber(locator)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.existing(table.Name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := setRow(f, table.Name, n, cells); err != nil {
		return err
	}
	return s.save(f)
}

func (s *Store) Delete(_ context.Context, table ports.TableSchema, locator string) error {
	n, err := rowNumber(locator)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.existing(table.Name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.RemoveRow(table.Name, n); err != nil {
		return fmt.Errorf("%w: remove row %d: %v", domain.ErrStoreUnavailable, n, err)
	}
	return s.save(f)
}

// Ping checks that an existing workbook can be opened.
func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	if f != nil {
		return f.Close()
	}
	return nil
}

// open returns the workbook, or nil when the file does not exist yet.
func (s *Store) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStoreUnavailable, s.path, err)
	}
	return f, nil
}

// existing opens the workbook and requires the given sheet to be present.
func (s *Store) existing(sheet string) (*excelize.File, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, sheet)
	}
	if !slices.Contains(f.GetSheetList(), sheet) {
		f.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, sheet)
	}
	return f, nil
}

func (s *Store) save(f *excelize.File) error {
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("%w: save %s: %v", domain.ErrStoreUnavailable, s.path, err)
	}
	return nil
}

// ensureSheet creates the worksheet with its header row when missing. A fresh
// workbook's default sheet is renamed rather than left empty.
func ensureSheet(f *excelize.File, table ports.TableSchema) error {
	sheets := f.GetSheetList()
	if slices.Contains(sheets, table.Name) {
		return nil
	}

	var err error
	if len(sheets) == 1 && sheets[0] == defaultSheet {
		err = f.SetSheetName(defaultSheet, table.Name)
	} else {
		_, err = f.NewSheet(table.Name)
	}
	if err != nil {
		return fmt.Errorf("%w: create sheet %s: %v", domain.ErrStoreUnavailable, table.Name, err)
	}
	return setRow(f, table.Name, 1, table.Fields)
}

func setRow(f *excelize.File, sheet string, n int, cells []string) error {
	addr, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, addr, &values); err != nil {
		return fmt.Errorf("%w: write row %d: %v", domain.ErrStoreUnavailable, n, err)
	}
	return nil
}

func rowNumber(locator string) (int, error) {
	n, err := strconv.Atoi(locator)
	if err != nil || n < 2 {
		return 0, fmt.Errorf("xlsx: bad row locator %q", locator)
	}
	return n, nil
}
