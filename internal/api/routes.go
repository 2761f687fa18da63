// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"strings"
	"time"

	"github.com/csv-backend/backend/internal/storage"
	"github.com/csv-backend/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Volume  storage.Volume
	Tracker *upload.Manager
	Namer   storage.Namer
	Clock   func() time.Time
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Ingest  IngestHandler
	Files   FilesHandler
	Uploads UploadsHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Volume.Location()),
		Ingest:  NewIngestHandler(deps.Volume, deps.Tracker, deps.Namer, deps.Clock),
		Files:   NewFilesHandler(deps.Volume),
		Uploads: NewUploadsHandler(deps.Tracker),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Wire-compatible endpoints used by the ingest client
	e.GET("/", handlers.Health.HandleGreeting)
	e.POST("/upload", handlers.Ingest.HandleUpload)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	filesGroup := apiGroup.Group("/files")
	filesGroup.GET("", handlers.Files.HandleListFiles)
	filesGroup.GET("/:name", handlers.Files.HandleGetFrame)
	filesGroup.GET("/:name/msgpack", handlers.Files.HandleGetFrameMsgpack)

	uploadsGroup := apiGroup.Group("/uploads")
	uploadsGroup.GET("", handlers.Uploads.HandleListUploads)
	uploadsGroup.GET("/:id", handlers.Uploads.HandleGetUpload)
}

// MiddlewareOptions selects the optional parts of the middleware chain
type MiddlewareOptions struct {
	RequestLogging bool
	BodyLimit      string
	ShowErrors     bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler(opts.ShowErrors)

	if opts.RequestLogging {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/" || strings.HasSuffix(path, "/health")
			},
			Output: e.Logger.Output(),
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	// Clients may gzip the body; the handler always sees plain CSV.
	e.Use(middleware.Decompress())

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
}
