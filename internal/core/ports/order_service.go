package ports

import (
	"context"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

// CreateOrderInput carries the fields of a new order.
type CreateOrderInput struct {
	AgentID        string
	MerchantID     string
	GoodsType      string
	Weight         float64
	Price          float64
	PickupLocation string
	DropLocation   string
	CreatedAt      string
	IdempotencyKey string
}

// OrderResult is returned by the service after creating an order.
type OrderResult struct {
	Order domain.Order
	// Provisional is true when the row append failed and was tolerated: the
	// order id was generated but may not exist in the store.
	Provisional bool
	// AlreadyExisted is true when the Idempotency-Key matched an earlier order.
	AlreadyExisted bool
}

// SetStatusInput carries a requested status change.
type SetStatusInput struct {
	OrderID   string
	NewStatus string
	DriverID  string
}

// OrderService defines the order lifecycle use cases.
type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*OrderResult, error)
	SetStatus(ctx context.Context, in SetStatusInput) (*domain.Order, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}

// IdempotencyRecord is what an Idempotency-Key resolves to.
type IdempotencyRecord struct {
	Order domain.Order `json:"order"`
	// Pending is set while the first request is still appending the row.
	Pending bool `json:"pending,omitempty"`
	// Provisional mirrors OrderResult.Provisional of the first request.
	Provisional bool `json:"provisional,omitempty"`
}

// IdempotencyStore reserves Idempotency-Keys before the order row is written,
// so overlapping retries resolve to a single order.
type IdempotencyStore interface {
	// Claim stores rec under key unless the key is already held. When it is,
	// the held record is returned with claimed false.
	Claim(ctx context.Context, key string, rec IdempotencyRecord) (held *IdempotencyRecord, claimed bool, err error)
	// Settle replaces the record of a claimed key.
	Settle(ctx context.Context, key string, rec IdempotencyRecord) error
	// Release gives up a claim whose order was never written.
	Release(ctx context.Context, key string) error
}

// StatusRecorder receives applied status changes. Implementations must not block.
type StatusRecorder interface {
	Record(change domain.StatusChange)
}
