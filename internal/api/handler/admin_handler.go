package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
)

// AdminHandler exposes the flat admin credential check.
type AdminHandler struct {
	auth ports.AdminAuthenticator
}

func NewAdminHandler(auth ports.AdminAuthenticator) *AdminHandler {
	return &AdminHandler{auth: auth}
}

// Validate handles POST /admin/validate.
//
// @Summary      Check admin credentials
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      adminValidateRequest  true  "Credentials"
// @Success      200   {object}  okResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/validate [post]
func (h *AdminHandler) Validate(c echo.Context) error {
	var req adminValidateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if !h.auth.Validate(req.Username, req.Password) {
		return domain.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, okResponse{IsOk: true})
}
