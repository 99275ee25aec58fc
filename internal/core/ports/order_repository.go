package ports

import (
	"context"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

// OrderMutation is applied to the current stored order during a
// read-modify-write. Returning an error aborts the write.
type OrderMutation func(o *domain.Order) error

// OrderRepository persists orders in the row store. Orders are never deleted.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	List(ctx context.Context) ([]domain.Order, error)
	// Get returns domain.ErrOrderNotFound when no row matches.
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	// Update re-reads the order, applies mutate and writes back only the status
	// and driver cells at the row's original position.
	Update(ctx context.Context, orderID string, mutate OrderMutation) (*domain.Order, error)
}
