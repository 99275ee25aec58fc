package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/pkg/idgen"
	"github.com/routedesk/logistics-api/internal/pkg/metrics"
)

type nopRecorder struct{}

func (nopRecorder) Record(domain.StatusChange) {}

// OrderService orchestrates order creation, status transitions and driver queues.
type OrderService struct {
	repo     ports.OrderRepository
	idem     ports.IdempotencyStore
	recorder ports.StatusRecorder
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time
}

// NewOrderService wires the lifecycle service. idem and recorder may be nil
// when redis or the audit trail are not configured.
func NewOrderService(
	repo ports.OrderRepository,
	idem ports.IdempotencyStore,
	recorder ports.StatusRecorder,
	opts Options,
	logger zerolog.Logger,
) *OrderService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &OrderService{
		repo:     repo,
		idem:     idem,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates the request and appends a pending order. When the append
// fails and provisioning gaps are tolerated the order is still returned,
// flagged Provisional.
func (s *OrderService) Create(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error) {
	if in.AgentID == "" || in.GoodsType == "" || in.PickupLocation == "" || in.DropLocation == "" ||
		in.Weight <= 0 || in.Price <= 0 {
		return nil, domain.ErrInvalidPayload
	}

	now := s.now()
	order := domain.Order{
		OrderID:        idgen.OrderID(now),
		AgentID:        in.AgentID,
		MerchantID:     in.MerchantID,
		GoodsType:      in.GoodsType,
		Weight:         in.Weight,
		Price:          in.Price,
		PickupLocation: in.PickupLocation,
		DropLocation:   in.DropLocation,
		Status:         domain.StatusPending,
		CreatedAt:      in.CreatedAt,
	}
	if order.CreatedAt == "" {
		order.CreatedAt = domain.Timestamp(now)
	}

	claimed := false
	if in.IdempotencyKey != "" && s.idem != nil {
		held, ok, err := s.idem.Claim(ctx, in.IdempotencyKey, ports.IdempotencyRecord{Order: order, Pending: true})
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency claim failed, creating anyway")
		case !ok:
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("order_id", held.Order.OrderID).Msg("idempotent replay")
			metrics.OrdersCreatedTotal.WithLabelValues("replayed").Inc()
			// a pending claim has not reached the store yet
			return &ports.OrderResult{
				Order:          held.Order,
				Provisional:    held.Provisional || held.Pending,
				AlreadyExisted: true,
			}, nil
		default:
			claimed = true
		}
	}

	result := &ports.OrderResult{Order: order}
	if err := s.repo.Create(ctx, &order); err != nil {
		if !s.opts.TolerateProvisioningGap {
			s.logger.Error().Err(err).Msg("failed to create order")
			if claimed {
				if rerr := s.idem.Release(ctx, in.IdempotencyKey); rerr != nil {
					s.logger.Warn().Err(rerr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
				}
			}
			return nil, err
		}
		s.logger.Warn().Err(err).Str("order_id", order.OrderID).Msg("order append failed, returning provisional id")
		result.Provisional = true
	}

	if claimed {
		rec := ports.IdempotencyRecord{Order: order, Provisional: result.Provisional}
		if err := s.idem.Settle(ctx, in.IdempotencyKey, rec); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to settle idempotency key")
		}
	}

	outcome := "stored"
	if result.Provisional {
		outcome = "provisional"
	}
	metrics.OrdersCreatedTotal.WithLabelValues(outcome).Inc()
	s.logger.Info().
		Str("order_id", order.OrderID).
		Str("agent_id", order.AgentID).
		Bool("provisional", result.Provisional).
		Msg("order created")

	return result, nil
}

// SetStatus moves an order to a new status and optionally (re)assigns its driver.
func (s *OrderService) SetStatus(ctx context.Context, in ports.SetStatusInput) (*domain.Order, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.DriverID = strings.TrimSpace(in.DriverID)
	if in.OrderID == "" || strings.TrimSpace(in.NewStatus) == "" {
		return nil, domain.ErrInvalidPayload
	}

	next := domain.OrderStatus(in.NewStatus)
	if s.opts.StrictTransitions {
		next = domain.OrderStatus(strings.ToLower(strings.TrimSpace(in.NewStatus)))
	}

	var from domain.OrderStatus
	updated, err := s.repo.Update(ctx, in.OrderID, func(o *domain.Order) error {
		from = o.Status
		if s.opts.StrictTransitions {
			// an unknown order is reported before an unknown status
			if !next.Known() || !o.Status.CanTransitionTo(next) {
				return &domain.TransitionError{From: o.Status, To: next}
			}
			if next.RequiresDriver() && in.DriverID == "" && o.DriverID == "" {
				return fmt.Errorf("%w: driver_id required for %s", domain.ErrInvalidTransition, next)
			}
		}
		o.Status = next
		if in.DriverID != "" {
			o.DriverID = in.DriverID
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			metrics.OrderTransitionsRejectedTotal.Inc()
		}
		return nil, fmt.Errorf("set status: %w", err)
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(updated.Status)).Inc()
	s.recorder.Record(domain.StatusChange{
		OrderID:  updated.OrderID,
		From:     from,
		To:       updated.Status,
		DriverID: updated.DriverID,
		At:       s.now().UTC(),
	})

	s.logger.Info().
		Str("order_id", updated.OrderID).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Str("driver_id", updated.DriverID).
		Msg("order status updated")

	return updated, nil
}

// ListByDriver returns the driver's active queue: orders assigned to driverID
// whose status is accepted or picked.
func (s *OrderService) ListByDriver(ctx context.Context, driverID string) ([]domain.Order, error) {
	if driverID == "" {
		return nil, domain.ErrInvalidPayload
	}

	orders, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	queue := make([]domain.Order, 0)
	for _, o := range orders {
		if o.DriverID == driverID && o.Status.Active() {
			queue = append(queue, o)
		}
	}
	return queue, nil
}

// Get returns a single order.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidPayload
	}
	return s.repo.Get(ctx, orderID)
}

// List returns every order in store order.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.list(ctx)
}

func (s *OrderService) list(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		if s.opts.TolerateProvisioningGap && errors.Is(err, domain.ErrTableNotFound) {
			s.logger.Warn().Err(err).Msg("orders table missing, treating as empty")
			return []domain.Order{}, nil
		}
		return nil, err
	}
	return orders, nil
}
