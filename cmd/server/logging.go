package main

import (
	"fmt"
	"io"
	"os"

	"github.com/csv-backend/backend/internal/config"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logLevels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

// configureLogging sets the echo logger level and, when a log file is
// configured, tees all log output into a size-rotated file. The returned
// closer is nil when logging only goes to stdout.
func configureLogging(e *echo.Echo, cfg config.LoggingConfig) (io.Closer, error) {
	lvl, ok := logLevels[cfg.Level]
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	e.Logger.SetLevel(lvl)

	if cfg.File == "" {
		return nil, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDay,
		MaxBackups: cfg.Backups,
	}
	e.Logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator, nil
}
