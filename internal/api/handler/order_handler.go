package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/routedesk/logistics-api/internal/core/ports"
)

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /orders.
//
// @Summary      Create an order
// @Description  The order starts as pending. When the store append fails the order is still returned with provisional=true.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string              false  "Replays return the original order"
// @Param        body             body      createOrderRequest  true   "Order"
// @Success      200              {object}  orderResponse
// @Failure      400              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), ports.CreateOrderInput{
		AgentID:        req.AgentID,
		MerchantID:     req.MerchantID,
		GoodsType:      req.GoodsType,
		Weight:         float64(req.Weight),
		Price:          float64(req.Price),
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		CreatedAt:      req.CreatedAt,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get("Idempotency-Key")),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orderResponse{
		IsOk:        true,
		Order:       result.Order,
		Provisional: result.Provisional,
		Replayed:    result.AlreadyExisted,
	})
}

// List handles GET /orders.
//
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Success      200  {array}   domain.Order
// @Failure      500  {object}  errorResponse
// @Router       /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// Get handles GET /orders/:order_id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        order_id  path      string  true  "Order id (e.g. ORD-1718000000000-AB12C)"
// @Success      200       {object}  domain.Order
// @Failure      404       {object}  errorResponse
// @Router       /orders/{order_id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.service.Get(c.Request().Context(), c.Param("order_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// SetStatus handles PUT and POST /orders/status.
//
// @Summary      Change an order's status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      setStatusRequest  true  "Order id, new status and optional driver"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /orders/status [put]
// @Router       /orders/status [post]
func (h *OrderHandler) SetStatus(c echo.Context) error {
	var req setStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.service.SetStatus(c.Request().Context(), ports.SetStatusInput{
		OrderID:   req.OrderID,
		NewStatus: req.NewStatus,
		DriverID:  req.DriverID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, statusResponse{
		IsOk:    true,
		Message: "status updated to " + string(order.Status),
		Order:   order,
	})
}

// ListByDriver handles GET /orders/by-driver.
//
// @Summary      A driver's active orders (accepted or picked)
// @Tags         orders
// @Produce      json
// @Param        driver_id  query     string  true  "Driver id"
// @Success      200        {array}   domain.Order
// @Failure      400        {object}  errorResponse
// @Router       /orders/by-driver [get]
func (h *OrderHandler) ListByDriver(c echo.Context) error {
	driverID := strings.TrimSpace(c.QueryParam("driver_id"))
	if driverID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing driver_id")
	}

	orders, err := h.service.ListByDriver(c.Request().Context(), driverID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}
