package handler

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

// number accepts a JSON number or a numeric string, as sent by form-driven clients.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*n = number(f)
	return nil
}

type okResponse struct {
	IsOk bool `json:"isOk"`
}

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// errorResponse documents the error envelope rendered by the HTTP error handler.
type errorResponse struct {
	IsOk  bool      `json:"isOk"`
	Error errorBody `json:"error"`
}

// --- Users ---

type createUserRequest struct {
	Name       string  `json:"name"        validate:"required,notblank"`
	Phone      string  `json:"phone"       validate:"required,notblank"`
	Role       string  `json:"role"        validate:"required,notblank"`
	Location   string  `json:"location"`
	Rating     *number `json:"rating"`
	CreatedAt  string  `json:"created_at"`
	IsBlocked  bool    `json:"is_blocked"`
	IsApproved bool    `json:"is_approved"`
	UserID     string  `json:"user_id"`
}

// userUpdates lists the only fields a client may change. Anything else in the
// payload is ignored.
type userUpdates struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Location   *string `json:"location"`
	IsBlocked  *bool   `json:"is_blocked"`
	IsApproved *bool   `json:"is_approved"`
}

type updateUserRequest struct {
	BackendID string `json:"backendId"`
	// Older front-end builds send the id under this key.
	LegacyBackendID string      `json:"__backendId"`
	Updates         userUpdates `json:"updates"`
}

type userResponse struct {
	IsOk bool        `json:"isOk"`
	User domain.User `json:"user"`
}

// --- Orders ---

type createOrderRequest struct {
	AgentID        string `json:"agent_id"        validate:"required,notblank"`
	MerchantID     string `json:"merchant_id"`
	GoodsType      string `json:"goods_type"      validate:"required,notblank"`
	Weight         number `json:"weight"          validate:"gt=0"`
	Price          number `json:"price"           validate:"gt=0"`
	PickupLocation string `json:"pickup_location" validate:"required,notblank"`
	DropLocation   string `json:"drop_location"   validate:"required,notblank"`
	CreatedAt      string `json:"created_at"`
}

type orderResponse struct {
	IsOk  bool         `json:"isOk"`
	Order domain.Order `json:"order"`
	// Provisional is set when the order could not be written to the store.
	Provisional bool `json:"provisional,omitempty"`
	Replayed    bool `json:"replayed,omitempty"`
}

type setStatusRequest struct {
	OrderID   string `json:"order_id"   validate:"required,notblank"`
	NewStatus string `json:"new_status" validate:"required,notblank"`
	DriverID  string `json:"driver_id"`
}

type statusResponse struct {
	IsOk    bool          `json:"isOk"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order,omitempty"`
}

// --- Admin ---

type adminValidateRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required,notblank"`
}
