package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/pkg/idgen"
)

// UserRepository implements ports.UserRepository on top of a RowStore.
type UserRepository struct {
	store ports.RowStore
	table ports.TableSchema
	log   zerolog.Logger
	now   func() time.Time
}

// NewUserRepository creates a UserRepository over the users table named table.
func NewUserRepository(store ports.RowStore, table string, log zerolog.Logger) *UserRepository {
	return &UserRepository{
		store: store,
		table: UserSchema(table),
		log:   log,
		now:   time.Now,
	}
}

// List returns every user in store order with read defaults applied.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, r.decode(row.Cells))
	}
	return users, nil
}

// Create appends u as a new row.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if err := r.store.Append(ctx, r.table, encodeUser(u)); err != nil {
		return fmt.Errorf("append user: %w", err)
	}
	return nil
}

// Patch rewrites only the whitelisted cells of the row keyed by backendID.
func (r *UserRepository) Patch(ctx context.Context, backendID string, p domain.UserPatch) (*domain.User, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, row := range rows {
		if cell(row.Cells, userColBackendID) == backendID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, domain.ErrNotFound
	}

	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		p.Phone = &phone
		for i, row := range rows {
			if i != idx && cell(row.Cells, userColPhone) == phone {
				return nil, domain.ErrDuplicatePhone
			}
		}
	}

	cells := widen(rows[idx].Cells, userColumns)
	if p.Name != nil {
		cells[userColName] = *p.Name
	}
	if p.Phone != nil {
		cells[userColPhone] = *p.Phone
	}
	if p.Location != nil {
		cells[userColLocation] = *p.Location
	}
	if p.IsApproved != nil {
		cells[userColIsApproved] = formatBool(*p.IsApproved)
	}
	if p.IsBlocked != nil {
		cells[userColIsBlocked] = formatBool(*p.IsBlocked)
	}

	if err := r.store.Replace(ctx, r.table, rows[idx].Locator, cells); err != nil {
		return nil, fmt.Errorf("replace user %s: %w", backendID, err)
	}

	u := r.decode(cells)
	return &u, nil
}

// Delete removes the first row whose backend id or user id equals id.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	rows, err := r.store.Fetch(ctx, r.table)
	if err != nil {
		return false, fmt.Errorf("fetch users: %w", err)
	}

	for _, row := range rows {
		if cell(row.Cells, userColBackendID) == id || cell(row.Cells, userColUserID) == id {
			if err := r.store.Delete(ctx, r.table, row.Locator); err != nil {
				return false, fmt.Errorf("delete user %s: %w", id, err)
			}
			return true, nil
		}
	}
	return false, nil
}

// rows fetches the non-blank user rows, assigning and persisting a backend id
// for any row that lacks one.
func (r *UserRepository) rows(ctx context.Context) ([]ports.StoredRow, error) {
	fetched, err := r.store.Fetch(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	rows := fetched[:0]
	for _, row := range fetched {
		if blank(row.Cells) {
			continue
		}
		if cell(row.Cells, userColBackendID) == "" {
			cells := widen(row.Cells, userColumns)
			cells[userColBackendID] = idgen.BackendID(r.now())
			if err := r.store.Replace(ctx, r.table, row.Locator, cells); err != nil {
				return nil, fmt.Errorf("assign backend id: %w", err)
			}
			r.log.Info().
				Str("phone", cells[userColPhone]).
				Str("backend_id", cells[userColBackendID]).
				Msg("assigned missing backend id")
			row.Cells = cells
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *UserRepository) decode(row []string) domain.User {
	u := domain.User{
		Name:       cell(row, userColName),
		Phone:      cell(row, userColPhone),
		Role:       cell(row, userColRole),
		Location:   cell(row, userColLocation),
		Rating:     parseFloat(cell(row, userColRating), domain.DefaultRating),
		CreatedAt:  cell(row, userColCreatedAt),
		IsApproved: parseBool(cell(row, userColIsApproved)),
		IsBlocked:  parseBool(cell(row, userColIsBlocked)),
		UserID:     cell(row, userColUserID),
		BackendID:  cell(row, userColBackendID),
	}
	if u.CreatedAt == "" {
		u.CreatedAt = domain.Timestamp(r.now())
	}
	return u
}

func encodeUser(u *domain.User) []string {
	row := make([]string, userColumns)
	row[userColName] = u.Name
	row[userColPhone] = u.Phone
	row[userColRole] = u.Role
	row[userColLocation] = u.Location
	row[userColRating] = formatFloat(u.Rating)
	row[userColCreatedAt] = u.CreatedAt
	row[userColIsApproved] = formatBool(u.IsApproved)
	row[userColIsBlocked] = formatBool(u.IsBlocked)
	row[userColUserID] = u.UserID
	row[userColBackendID] = u.BackendID
	return row
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
