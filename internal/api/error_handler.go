package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and renders {"error": "<message>"}. Only unexpected errors
// are logged; their details never reach the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// statusFor lists the domain errors with a fixed status. Order matters:
// the first match wins, and the not-found variants all wrap ErrNotFound.
var statusFor = []struct {
	err  error
	code int
}{
	{domain.ErrRoleViolation, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrValidation, http.StatusUnprocessableEntity},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrRequestClosed, http.StatusConflict},
	{domain.ErrDuplicateInterest, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrUserExists, http.StatusConflict},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, s := range statusFor {
		if errors.Is(err, s.err) {
			return s.code, err.Error()
		}
	}

	if errors.Is(err, domain.ErrStoreUnavailable) {
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("store unavailable")
		return http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
