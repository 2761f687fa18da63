package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/csv-backend/backend/internal/api"
	"github.com/csv-backend/backend/internal/config"
	"github.com/csv-backend/backend/internal/storage"
	"github.com/csv-backend/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// configFileName is looked up next to the executable unless
// CSV_BACKEND_CONFIG points elsewhere.
const configFileName = "csv-backend.yaml"

func main() {
	configPath := os.Getenv("CSV_BACKEND_CONFIG")
	if configPath == "" {
		exePath, err := os.Executable()
		if err != nil {
			fmt.Printf("Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(filepath.Dir(exePath), configFileName)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize volume
	volume, err := storage.NewVolume(context.Background(), cfg.Storage.Volume, storage.ObjectConfig{
		Endpoint:  cfg.Storage.S3Endpoint,
		AccessKey: cfg.Storage.S3AccessKey,
		SecretKey: cfg.Storage.S3SecretKey,
	})
	if err != nil {
		fmt.Printf("Failed to initialize volume: %v\n", err)
		os.Exit(1)
	}

	namer, err := storage.NamerFor(cfg.Storage.Naming)
	if err != nil {
		fmt.Printf("Failed to select naming strategy: %v\n", err)
		os.Exit(1)
	}

	// Upload history, trimmed in the background
	tracker := upload.NewManager(cfg.Storage.TrackedUploads)
	if cfg.Storage.UploadRetentionMinutes > 0 {
		retention := time.Duration(cfg.Storage.UploadRetentionMinutes) * time.Minute
		go func() {
			ticker := time.NewTicker(retention / 4)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					tracker.CleanupOld(retention)
				}
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true

	logFile, err := configureLogging(e, cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	api.SetupMiddleware(e, api.MiddlewareOptions{
		RequestLogging: cfg.Logging.EnableRequestLogging,
		BodyLimit:      cfg.Server.BodyLimit,
	})

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Volume:  volume,
		Tracker: tracker,
		Namer:   namer,
		Version: Version,
	}))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logTarget := "stdout"
	if cfg.Logging.File != "" {
		logTarget = cfg.Logging.File
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           CSV Backend Server                              ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Volume:    %-46s║\n", volume.Location())
	fmt.Printf("║  Naming:    %-46s║\n", cfg.Storage.Naming)
	fmt.Printf("║  Log:       %-46s║\n", logTarget)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}
