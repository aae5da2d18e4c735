package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifelink/coordination-api/internal/api/middleware"
)

// principalID returns the authenticated principal set by the Auth
// middleware. An empty value means the middleware did not run.
func principalID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.KeyPrincipalID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
