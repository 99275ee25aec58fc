package ports

import (
	"context"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

// UserRepository persists users in the row store.
type UserRepository interface {
	// List returns every user in store order. Rows without a backend id get one
	// assigned and written back before List returns.
	List(ctx context.Context) ([]domain.User, error)
	// Create appends u. Phone uniqueness is checked by the caller.
	Create(ctx context.Context, u *domain.User) error
	// Patch applies p to the row keyed by backendID, leaving every other cell
	// untouched. Returns domain.ErrNotFound when no row matches.
	Patch(ctx context.Context, backendID string, p domain.UserPatch) (*domain.User, error)
	// Delete removes the row whose backend id or user id equals id.
	// Reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}
