// Package config resolves saucier settings from flags, environment and the
// config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/saucier/internal/common"
)

// Default values for settings missing from the config file and environment.
const (
	DefaultDatabasePath  = "~/.local/share/saucier/saucier.db"
	DefaultServeAddr     = ":8080"
	DefaultImportRetries = 3
	DefaultSessionTTL    = 30 * time.Minute
	DefaultFactorLabel   = "Facteur de proportionnalité"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultRateLimit     = 120
	DefaultMaxSessions   = 1000
)

// Config holds the resolved application settings.
type Config struct {
	DatabasePath  string
	ServeAddr     string
	ImportURL     string
	FactorLabel   string
	LogLevel      string
	LogFormat     string
	CORSOrigins   []string
	ImportRetries int
	RateLimit     int
	MaxSessions   int
	SessionTTL    time.Duration
	ShowFactor    bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("serve.addr", DefaultServeAddr)
	v.SetDefault("serve.session_ttl", DefaultSessionTTL)
	v.SetDefault("serve.rate_limit", DefaultRateLimit)
	v.SetDefault("serve.max_sessions", DefaultMaxSessions)
	v.SetDefault("serve.cors_origins", []string{"*"})
	v.SetDefault("import.retries", DefaultImportRetries)
	v.SetDefault("scaling.show_factor", true)
	v.SetDefault("scaling.factor_label", DefaultFactorLabel)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// Load resolves the configuration from v. Values come from, in order of
// precedence, bound flags, SAUCIER_ environment variables, the config file
// and the defaults.
func Load(v *viper.Viper) (*Config, error) {
	dbPath, err := DatabasePath(v.GetString("database.path"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabasePath:  dbPath,
		ServeAddr:     v.GetString("serve.addr"),
		ImportURL:     v.GetString("import.url"),
		ImportRetries: v.GetInt("import.retries"),
		SessionTTL:    v.GetDuration("serve.session_ttl"),
		RateLimit:     v.GetInt("serve.rate_limit"),
		MaxSessions:   v.GetInt("serve.max_sessions"),
		CORSOrigins:   v.GetStringSlice("serve.cors_origins"),
		ShowFactor:    v.GetBool("scaling.show_factor"),
		FactorLabel:   v.GetString("scaling.factor_label"),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     v.GetString("logging.format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabasePath resolves a configured database location into the path handed
// to the SQLite driver. A leading ~ and $VAR references are expanded and
// relative paths are made absolute. ":memory:" is passed through unchanged.
func DatabasePath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == ":memory:" {
		return raw, nil
	}

	path := raw
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: database.path %q: %w", common.ErrInvalidConfig, raw, err)
		}
		path = home + path[1:]
	}
	path = os.ExpandEnv(path)
	if path == "" {
		return "", fmt.Errorf("%w: database.path %q expands to nothing", common.ErrInvalidConfig, raw)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: database.path %q: %w", common.ErrInvalidConfig, raw, err)
	}
	return abs, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.ImportRetries < 1 {
		return fmt.Errorf("%w: import.retries must be at least 1, got %d", common.ErrInvalidConfig, c.ImportRetries)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: serve.session_ttl must be positive", common.ErrInvalidConfig)
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("%w: serve.rate_limit must be at least 1, got %d", common.ErrInvalidConfig, c.RateLimit)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("%w: serve.max_sessions must be at least 1, got %d", common.ErrInvalidConfig, c.MaxSessions)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", common.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
