// Package config loads, defaults, and validates the Trellis server
// configuration, and provides factory functions that turn the declarative
// store sections into live backends.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Trellis server configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (TRELLIS_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration shape. The Config
// struct contains type-specific sections (e.g. nodes.badger, nodes.postgres)
// and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains the HTTP listener settings
	Server ServerConfig `mapstructure:"server"`

	// Nodes specifies the node store type and type-specific configuration
	Nodes NodesConfig `mapstructure:"nodes"`

	// Content specifies the content store type and type-specific configuration
	Content ContentConfig `mapstructure:"content"`

	// Activation tunes the domain activation cache and upload bookkeeping
	Activation ActivationConfig `mapstructure:"activation"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr"`
}

// ServerConfig contains the HTTP listener settings.
type ServerConfig struct {
	// Listen is the address the HTTP server binds to (e.g. ":8080")
	Listen string `mapstructure:"listen" validate:"required"`

	// RequestTimeout bounds each in-flight request
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required,gt=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// NodesConfig specifies node store configuration.
//
// The Type field determines which store implementation is used. Only the
// corresponding type-specific configuration section is used.
type NodesConfig struct {
	// Type specifies which node store implementation to use
	// Valid values: memory, badger, postgres
	Type string `mapstructure:"type" validate:"required,oneof=memory badger postgres"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// Postgres contains PostgreSQL-specific configuration
	// Only used when Type = "postgres"
	Postgres map[string]any `mapstructure:"postgres"`
}

// ContentConfig specifies content store configuration.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=memory s3"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// ActivationConfig tunes domain activation caching and pending uploads.
type ActivationConfig struct {
	// RefreshInterval is how long a cached activation snapshot stays fresh
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"required,gt=0"`

	// PendingUploadTTL is how long an announced upload may wait for its
	// content before the reservation expires
	PendingUploadTTL time.Duration `mapstructure:"pending_upload_ttl" validate:"required,gt=0"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the TRELLIS_ prefix and underscores.
	// Example: TRELLIS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("TRELLIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is acceptable; defaults apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "trellis")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "trellis")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
