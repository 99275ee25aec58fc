package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	IsOk  bool      `json:"isOk"`
	Error errorBody `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their status code and error code.
//   - Passes row store failures through as 500 with the raw message.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"isOk": false, "error": {"message": "<code>"}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{IsOk: false, Error: body})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorBody) {
	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, withDetail(domain.ErrInvalidPayload, err)
	case errors.Is(err, domain.ErrDuplicatePhone):
		return http.StatusConflict, errorBody{Message: domain.ErrDuplicatePhone.Error()}
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, errorBody{Message: domain.ErrOrderNotFound.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Message: domain.ErrNotFound.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, withDetail(domain.ErrInvalidTransition, err)
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Message: domain.ErrUnauthorized.Error()}
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrTableNotFound):
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("row store failure")
		return http.StatusInternalServerError, errorBody{Message: err.Error()}
	}

	// Echo's own errors (404 from router, 405, handler-raised 400s).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorBody{Message: fmt.Sprintf("%v", he.Message)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorBody{Message: "internal_error"}
}

// withDetail returns the sentinel's code, plus the full wrapped message when it carries more.
func withDetail(sentinel, err error) errorBody {
	body := errorBody{Message: sentinel.Error()}
	if msg := err.Error(); msg != body.Message {
		body.Detail = msg
	}
	return body
}
