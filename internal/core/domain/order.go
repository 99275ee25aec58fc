package domain

import (
	"fmt"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusPicked    OrderStatus = "picked"
	StatusDelivered OrderStatus = "delivered"
)

// validTransitions defines the linear order lifecycle.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:  {StatusAccepted},
	StatusAccepted: {StatusPicked},
	StatusPicked:   {StatusDelivered},
}

// Known reports whether s is one of the four lifecycle states.
func (s OrderStatus) Known() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusPicked, StatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RequiresDriver reports whether an order in this state must have a driver assigned.
func (s OrderStatus) RequiresDriver() bool {
	return s == StatusAccepted || s == StatusPicked || s == StatusDelivered
}

// Active reports whether the status belongs in a driver's working queue.
func (s OrderStatus) Active() bool {
	return s == StatusAccepted || s == StatusPicked
}

// Order is a delivery request raised by an agent.
type Order struct {
	OrderID        string      `json:"order_id"`
	AgentID        string      `json:"agent_id"`
	MerchantID     string      `json:"merchant_id"`
	GoodsType      string      `json:"goods_type"`
	Weight         float64     `json:"weight"`
	Price          float64     `json:"price"`
	PickupLocation string      `json:"pickup_location"`
	DropLocation   string      `json:"drop_location"`
	Status         OrderStatus `json:"status"`
	CreatedAt      string      `json:"created_at"`
	DriverID       string      `json:"driver_id"`
}

// StatusChange records a single applied status update on an order.
type StatusChange struct {
	OrderID  string
	From     OrderStatus
	To       OrderStatus
	DriverID string
	At       time.Time
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	if !e.To.Known() {
		return fmt.Sprintf("%s: unknown status %q", ErrInvalidTransition, e.To)
	}
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
