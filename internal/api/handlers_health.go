// handlers_health.go - Liveness and health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Greeting is the fixed body served at the root path.
const Greeting = "Hello from csv backend"

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	volume  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, volume string) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		volume:  volume,
	}
}

// HandleGreeting serves the plain-text liveness probe at "/".
func (h *HealthHandlerImpl) HandleGreeting(c echo.Context) error {
	return c.String(http.StatusOK, Greeting)
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"volume":  h.volume,
	})
}
