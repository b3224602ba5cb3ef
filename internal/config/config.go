// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lanz/mediatracker-cli/internal/api"
	"github.com/lanz/mediatracker-cli/internal/logger"
	"github.com/lanz/mediatracker-cli/internal/pager"
)

const (
	// DefaultBaseURL is where the backend listens in a local setup
	DefaultBaseURL = "http://localhost:8080/api"
	// DefaultCollection is the collection the CLI manages
	DefaultCollection = "books"
	// DefaultLogLevel is used when nothing else is configured
	DefaultLogLevel = "warn"
)

// Config holds global configuration settings
type Config struct {
	// BaseURL is the backend API root, e.g. http://localhost:8080/api
	BaseURL    string        `yaml:"base_url"`
	Collection string        `yaml:"collection"`
	PageSize   int           `yaml:"page_size"`
	LogLevel   string        `yaml:"log_level"`
	// LogFile receives logs when set. The TUI always logs to a file.
	LogFile string        `yaml:"log_file"`
	Timeout time.Duration `yaml:"timeout"`

	// path is the file the config was read from, if any
	path string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		Collection: DefaultCollection,
		PageSize:   pager.DefaultPageSize,
		LogLevel:   DefaultLogLevel,
		Timeout:    api.DefaultTimeout,
	}
}

// DefaultDir returns ~/.mediatracker, or MT_HOME when set
func DefaultDir() string {
	if envDir := os.Getenv("MT_HOME"); envDir != "" {
		return envDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mediatracker"
	}
	return filepath.Join(homeDir, ".mediatracker")
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultLogFile is where the TUI logs when no log file is configured
func DefaultLogFile() string {
	return filepath.Join(DefaultDir(), "mt.log")
}

// LoadConfig reads path (or the default location when path is empty),
// and applies environment overrides. A missing file at the default location
// is not an error. The result is not validated; callers apply their own
// overrides first and then call Validate.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := cfg.readFile(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			logger.GetLogger().Debug("no config file at %s, using defaults", path)
		} else {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.path = path
	return nil
}

// applyEnv overrides fields from MT_* environment variables
func (c *Config) applyEnv() error {
	if v := os.Getenv("MT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("MT_COLLECTION"); v != "" {
		c.Collection = v
	}
	if v := os.Getenv("MT_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MT_PAGE_SIZE: %w", err)
		}
		c.PageSize = size
	}
	if v := os.Getenv("MT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MT_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("MT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MT_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

// Path returns the file the configuration was read from, or ""
func (c *Config) Path() string {
	return c.path
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	baseURL, err := api.NormalizeBaseURL(c.BaseURL)
	if err != nil {
		return err
	}
	c.BaseURL = baseURL

	c.Collection = strings.Trim(strings.TrimSpace(c.Collection), "/")
	if c.Collection == "" {
		return fmt.Errorf("collection cannot be empty")
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.LogFile != "" {
		absPath, err := filepath.Abs(c.LogFile)
		if err != nil {
			return fmt.Errorf("failed to resolve log file path: %w", err)
		}
		c.LogFile = absPath
	}

	return nil
}
