package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	service ports.UserService
	now     func() time.Time
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service, now: time.Now}
}

// Create handles POST /users.
//
// @Summary      Register a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.CreateUserInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Role:       req.Role,
		Location:   req.Location,
		CreatedAt:  req.CreatedAt,
		IsBlocked:  req.IsBlocked,
		IsApproved: req.IsApproved,
		UserID:     req.UserID,
	}
	if req.Rating != nil {
		r := float64(*req.Rating)
		in.Rating = &r
	}

	user, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{IsOk: true, User: *user})
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      500  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Update handles POST /users/update.
//
// @Summary      Update whitelisted user fields
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateUserRequest  true  "Backend id and updates"
// @Success      200   {object}  okResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/update [post]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	backendID := req.BackendID
	if backendID == "" {
		backendID = req.LegacyBackendID
	}

	_, err := h.service.Update(c.Request().Context(), backendID, domain.UserPatch{
		Name:       req.Updates.Name,
		Phone:      req.Updates.Phone,
		Location:   req.Updates.Location,
		IsBlocked:  req.Updates.IsBlocked,
		IsApproved: req.Updates.IsApproved,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{IsOk: true})
}

// Delete handles DELETE /users/:id. The id may be a backend id or a user id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "Backend id or user id"
// @Success      200  {object}  okResponse
// @Failure      500  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{IsOk: true})
}

// Export handles GET /users/export.
//
// @Summary      Download all users as xlsx
// @Tags         users
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    binary
// @Failure      500  {object}  errorResponse
// @Router       /users/export [get]
func (h *UserHandler) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.service.Export(c.Request().Context(), &buf); err != nil {
		return err
	}

	filename := fmt.Sprintf("users_export_%s.xlsx", h.now().Format(time.DateOnly))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

// bindAndValidate decodes the body into req and runs struct validation. Both
// failures are reported as invalid payloads.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}
