package ports

import "context"

// TableSchema names a table (sheet tab or Airtable table) and its columns in
// persisted order. Backends that address cells by name (Airtable, xlsx header)
// use Fields; positional backends only use its length.
type TableSchema struct {
	Name   string
	Fields []string
}

// Width is the number of columns in a row of this table.
func (s TableSchema) Width() int { return len(s.Fields) }

// StoredRow is one data row as read from the store.
// Locator is opaque to callers and only meaningful to the store that produced it
// (a sheet row number, an Airtable record id, ...).
type StoredRow struct {
	Locator string
	Cells   []string
}

// RowStore abstracts an external tabular store. Rows are positional string
// slices; callers own the column mapping.
//
// There are no transactions: between a caller's Fetch and its subsequent
// Replace another writer may change the same row, and the last write wins.
type RowStore interface {
	// Fetch returns every data row of table in store order (header excluded).
	Fetch(ctx context.Context, table TableSchema) ([]StoredRow, error)
	Append(ctx context.Context, table TableSchema, row []string) error
	// Replace overwrites the row identified by locator in place.
	Replace(ctx context.Context, table TableSchema, locator string, row []string) error
	Delete(ctx context.Context, table TableSchema, locator string) error
	// Ping verifies the store is reachable with the configured credentials.
	Ping(ctx context.Context) error
}
