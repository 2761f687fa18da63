// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// HealthHandler handles liveness operations
type HealthHandler interface {
	HandleGreeting(c echo.Context) error
	HandleHealth(c echo.Context) error
}

// IngestHandler accepts uploaded frames and persists them to the volume
type IngestHandler interface {
	HandleUpload(c echo.Context) error
}

// FilesHandler reads back what the volume holds
type FilesHandler interface {
	HandleListFiles(c echo.Context) error
	HandleGetFrame(c echo.Context) error
	HandleGetFrameMsgpack(c echo.Context) error
}

// UploadsHandler exposes the upload history
type UploadsHandler interface {
	HandleListUploads(c echo.Context) error
	HandleGetUpload(c echo.Context) error
}
