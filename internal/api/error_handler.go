package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/handler"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/infrastructure/gateway"
)

// statusClientClosed is logged when the browser went away mid-request.
const statusClientClosed = 499

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Passes backend failures through with the backend's status and message.
//   - Maps validation and session errors to 4xx codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosed, "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "backend did not answer in time"
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrUnsupportedFileType),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrInvalidField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "not logged in"
	}

	var ge *gateway.Error
	if errors.As(err, &ge) {
		if ge.Transport() {
			return http.StatusBadGateway, ge.Message
		}
		return ge.Status, ge.Message
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
