package repository

import (
	"context"
	"fmt"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository on top of a RowStore.
type OrderRepository struct {
	store ports.RowStore
	table ports.TableSchema
}

// NewOrderRepository creates an OrderRepository over the orders table named table.
func NewOrderRepository(store ports.RowStore, table string) *OrderRepository {
	return &OrderRepository{store: store, table: OrderSchema(table)}
}

// Create appends o as a new row.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	if err := r.store.Append(ctx, r.table, encodeOrder(o)); err != nil {
		return fmt.Errorf("append order: %w", err)
	}
	return nil
}

// List returns every order in store order.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.store.Fetch(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		if blank(row.Cells) {
			continue
		}
		orders = append(orders, decodeOrder(row.Cells))
	}
	return orders, nil
}

// Get returns the order with the given id.
func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	row, err := r.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o := decodeOrder(row.Cells)
	return &o, nil
}

// Update re-reads the order, applies mutate and writes the status and driver
// cells back at the row's original position. All other cells are written
// exactly as they were read.
func (r *OrderRepository) Update(ctx context.Context, orderID string, mutate ports.OrderMutation) (*domain.Order, error) {
	row, err := r.find(ctx, orderID)
	if err != nil {
		return nil, err
	}

	o := decodeOrder(row.Cells)
	if err := mutate(&o); err != nil {
		return nil, err
	}

	cells := widen(row.Cells, orderColumns)
	cells[orderColStatus] = string(o.Status)
	cells[orderColDriverID] = o.DriverID

	if err := r.store.Replace(ctx, r.table, row.Locator, cells); err != nil {
		return nil, fmt.Errorf("replace order %s: %w", orderID, err)
	}
	return &o, nil
}

func (r *OrderRepository) find(ctx context.Context, orderID string) (*ports.StoredRow, error) {
	rows, err := r.store.Fetch(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	for i := range rows {
		if cell(rows[i].Cells, orderColOrderID) == orderID {
			return &rows[i], nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func decodeOrder(row []string) domain.Order {
	return domain.Order{
		OrderID:        cell(row, orderColOrderID),
		AgentID:        cell(row, orderColAgentID),
		MerchantID:     cell(row, orderColMerchantID),
		GoodsType:      cell(row, orderColGoodsType),
		Weight:         parseFloat(cell(row, orderColWeight), 0),
		Price:          parseFloat(cell(row, orderColPrice), 0),
		PickupLocation: cell(row, orderColPickup),
		DropLocation:   cell(row, orderColDrop),
		Status:         domain.OrderStatus(cell(row, orderColStatus)),
		CreatedAt:      cell(row, orderColCreatedAt),
		DriverID:       cell(row, orderColDriverID),
	}
}

func encodeOrder(o *domain.Order) []string {
	row := make([]string, orderColumns)
	row[orderColOrderID] = o.OrderID
	row[orderColAgentID] = o.AgentID
	row[orderColMerchantID] = o.MerchantID
	row[orderColGoodsType] = o.GoodsType
	row[orderColWeight] = formatFloat(o.Weight)
	row[orderColPrice] = formatFloat(o.Price)
	row[orderColPickup] = o.PickupLocation
	row[orderColDrop] = o.DropLocation
	row[orderColStatus] = string(o.Status)
	row[orderColCreatedAt] = o.CreatedAt
	row[orderColDriverID] = o.DriverID
	return row
}
