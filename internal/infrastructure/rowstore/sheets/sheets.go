// Package sheets implements ports.RowStore on a Google Sheets spreadsheet.
//
// Each table is a tab whose first row is a header; data starts at row 2 and a
// row's locator is its 1-based sheet row number.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore"
)

const valueInputRaw = "RAW"

// Config captures the settings required to reach a spreadsheet.
type Config struct {
	SpreadsheetID string
	// Credentials is a service-account key (see LoadCredentials).
	Credentials []byte
	// Endpoint and HTTPClient override the API base URL and transport; when
	// HTTPClient is set Credentials are not used.
	Endpoint   string
	HTTPClient *http.Client
}

// Store talks to the Sheets v4 values API.
type Store struct {
	svc           *gsheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// New authenticates with the service-account key and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: missing_spreadsheet_id", domain.ErrStoreUnavailable)
	}

	var opts []option.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	} else {
		jwtCfg, err := google.JWTConfigFromJSON(cfg.Credentials, gsheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		opts = append(opts, option.WithHTTPClient(jwtCfg.Client(ctx)))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: sheets client: %v", domain.ErrStoreUnavailable, err)
	}

	return &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetIDs:      make(map[string]int64),
	}, nil
}

func (s *Store) Fetch(ctx context.Context, table ports.TableSchema) ([]ports.StoredRow, error) {
	rng := fmt.Sprintf("%s!A2:%s", table.Name, rowstore.ColumnLetter(table.Width()))

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, table.Name)
	}

	rows := make([]ports.StoredRow, len(resp.Values))
	for i, values := range resp.Values {
		cells := make([]string, len(values))
		for j, v := range values {
			cells[j] = rowstore.CellString(v)
		}
		rows[i] = ports.StoredRow{Locator: strconv.Itoa(i + 2), Cells: cells}
	}
	return rows, nil
}

func (s *Store) Append(ctx context.Context, table ports.TableSchema, row []string) error {
	cells, err := rowstore.Fit(table, row)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A:%s", table.Name, rowstore.ColumnLetter(table.Width()))
	vr := &gsheets.ValueRange{Values: [][]any{toValues(cells)}}

	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
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
	n, err := rowNumber(locator)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", table.Name, n, rowstore.ColumnLetter(table.Width()), n)
	vr := &gsheets.ValueRange{Values: [][]any{toValues(cells)}}

	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return classify(err, table.Name)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table ports.TableSchema, locator string) error {
	n, err := rowNumber(locator)
	if err != nil {
		return err
	}
	sheetID, err := s.sheetID(ctx, table.Name)
	if err != nil {
		return err
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteDimension: &gsheets.DeleteDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: n - 1,
					EndIndex:   n,
					// SheetId 0 is the first tab and must still be sent.
					ForceSendFields: []string{"SheetId"},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify(err, table.Name)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return classify(err, "")
	}
	return nil
}

// sheetID resolves a tab title to its numeric id, caching the lookup.
func (s *Store) sheetID(ctx context.Context, title string) (int64, error) {
	s.mu.Lock()
	id, ok := s.sheetIDs[title]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, classify(err, title)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok = s.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrTableNotFound, title)
	}
	return id, nil
}

// classify maps a Sheets API failure onto the domain taxonomy. A range on a
// tab that does not exist is reported by the API as an unparsable range.
func classify(err error, table string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest &&
		strings.Contains(gerr.Message, "Unable to parse range") {
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, table)
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func rowNumber(locator string) (int64, error) {
	n, err := strconv.ParseInt(locator, 10, 64)
	if err != nil || n < 2 {
		return 0, fmt.Errorf("sheets: bad row locator %q", locator)
	}
	return n, nil
}

func toValues(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
