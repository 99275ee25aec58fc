// Package airtable implements ports.RowStore on an Airtable base.
//
// Columns are addressed by the schema's field names and a row's locator is its
// Airtable record id. Writes use typecast so string cells land in number and
// checkbox fields.
package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mehanizm/airtable"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore"
)

const pageSize = 100

// Config captures the settings for an Airtable base.
type Config struct {
	APIKey string
	BaseID string
	// PingTable is read with a single-record page to check reachability.
	PingTable string
	// BaseURL overrides the API root (tests).
	BaseURL string
}

// Store reads and writes Airtable records.
type Store struct {
	client    *airtable.Client
	baseID    string
	pingTable string
}

// New returns a Store for the configured base.
func New(cfg Config) (*Store, error) {
	if cfg.APIKey == "" || cfg.BaseID == "" {
		return nil, fmt.Errorf("%w: missing_airtable_config", domain.ErrStoreUnavailable)
	}

	client := airtable.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		if err := client.SetBaseURL(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("airtable base url: %w", err)
		}
	}

	return &Store{client: client, baseID: cfg.BaseID, pingTable: cfg.PingTable}, nil
}

// The Airtable client has no context-aware calls; ctx is accepted to satisfy
// ports.RowStore and checked before each round trip.

func (s *Store) Fetch(ctx context.Context, table ports.TableSchema) ([]ports.StoredRow, error) {
	t := s.client.GetTable(s.baseID, table.Name)

	var rows []ports.StoredRow
	offset := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := t.GetRecords().PageSize(pageSize)
		if offset != "" {
			req = req.WithOffset(offset)
		}
		page, err := req.Do()
		if err != nil {
			return nil, classify(err, table.Name)
		}

		for _, rec := range page.Records {
			cells := make([]string, table.Width())
			for i, field := range table.Fields {
				cells[i] = rowstore.CellString(rec.Fields[field])
			}
			rows = append(rows, ports.StoredRow{Locator: rec.ID, Cells: cells})
		}

		if page.Offset == "" {
			return rows, nil
		}
		offset = page.Offset
	}
}

func (s *Store) Append(ctx context.Context, table ports.TableSchema, row []string) error {
	cells, err := rowstore.Fit(table, row)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fields := make(map[string]any, len(cells))
	for i, c := range cells {
		if c != "" {
			fields[table.Fields[i]] = c
		}
	}

	_, err = s.client.GetTable(s.baseID, table.Name).AddRecords(&airtable.Records{
		Records:  []*airtable.Record{{Fields: fields}},
		Typecast: true,
	})
	if err != nil {
		return classify(err, table.Name)
	}
	return nil
}

func (s *Store) Replace(ctx context.Context, table ports.TableSchema, locator string, row []string) error {
	cells, err := rowstore.Fit(table, row)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Empty cells are sent as null so the field is cleared.
	fields := make(map[string]any, len(cells))
	for i, c := range cells {
		if c == "" {
			fields[table.Fields[i]] = nil
			continue
		}
		fields[table.Fields[i]] = c
	}

	_, err = s.client.GetTable(s.baseID, table.Name).UpdateRecordsPartial(&airtable.Records{
		Records:  []*airtable.Record{{ID: locator, Fields: fields}},
		Typecast: true,
	})
	if err != nil {
		return classify(err, table.Name)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table ports.TableSchema, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.GetTable(s.baseID, table.Name).DeleteRecords([]string{locator}); err != nil {
		return classify(err, table.Name)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.GetTable(s.baseID, s.pingTable).GetRecords().PageSize(1).Do(); err != nil {
		return classify(err, s.pingTable)
	}
	return nil
}

func classify(err error, table string) error {
	var herr *airtable.HTTPClientError
	if errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, table)
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
