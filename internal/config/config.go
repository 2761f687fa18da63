// Package config provides configuration for the ingest server: built-in
// defaults, an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bind_address"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
	IdleTimeout  int    `yaml:"idle_timeout_seconds"`
	// BodyLimit is an echo size string such as "64M"; empty means no limit.
	BodyLimit string `yaml:"body_limit"`
}

// StorageConfig contains volume settings
type StorageConfig struct {
	// Volume is a directory, or s3://bucket/prefix for an object store.
	Volume string `yaml:"volume"`
	// Naming is "timestamp" or "unique".
	Naming string `yaml:"naming"`

	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`

	// TrackedUploads bounds the in-memory upload history.
	TrackedUploads         int `yaml:"tracked_uploads"`
	UploadRetentionMinutes int `yaml:"upload_retention_minutes"`
}

// LoggingConfig contains request and application log settings
type LoggingConfig struct {
	Level                string `yaml:"level"`
	EnableRequestLogging bool   `yaml:"enable_request_logging"`
	// File, when set, receives a copy of all log output, rotated by size.
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxAgeDay int    `yaml:"max_age_days"`
	Backups   int    `yaml:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "127.0.0.1",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Storage: StorageConfig{
			Volume:                 ".",
			Naming:                 "timestamp",
			TrackedUploads:         500,
			UploadRetentionMinutes: 24 * 60,
		},
		Logging: LoggingConfig{
			Level:                "info",
			EnableRequestLogging: true,
			MaxSizeMB:            50,
			MaxAgeDay:            14,
			Backups:              5,
		},
	}
}

// LoadConfig loads configuration from a YAML file. An empty path or a
// missing file leaves the defaults in place; environment variables are
// applied last in both cases.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := config.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() error {
	// VOLUME is the one setting the original deployment relied on
	if volume := os.Getenv("VOLUME"); volume != "" {
		c.Storage.Volume = volume
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}

	c.Server.BindAddress = getEnv("BIND_ADDRESS", c.Server.BindAddress)
	c.Storage.Naming = getEnv("NAMING", c.Storage.Naming)
	c.Storage.S3Endpoint = getEnv("S3_ENDPOINT", c.Storage.S3Endpoint)
	c.Storage.S3AccessKey = getEnv("S3_ACCESS_KEY", c.Storage.S3AccessKey)
	c.Storage.S3SecretKey = getEnv("S3_SECRET_KEY", c.Storage.S3SecretKey)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// Validate checks values that would otherwise fail late at startup.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Storage.Volume == "" {
		return fmt.Errorf("volume must not be empty")
	}
	switch c.Storage.Naming {
	case "timestamp", "unique":
	default:
		return fmt.Errorf("unknown naming strategy %q", c.Storage.Naming)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}
