// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".memorylane/configs"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
)

// envBindings maps config keys to the environment variables overriding them
var envBindings = map[string]string{
	"library.root":          "MEMORYLANE_ROOT",
	"database.type":         "DB_TYPE",
	"database.sqlite_path":  "DB_PATH",
	"database.postgres_dsn": "DB_DSN",
	"logging.level":         "LOG_LEVEL",
	"metrics.token":         "METRICS_TOKEN",
}

// Load reads configuration from ~/.memorylane/configs/config.json. A
// missing file means defaults plus environment overrides.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(homeDir, DefaultConfigDir))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Library.Root = expandHome(cfg.Library.Root)
	cfg.Database.SQLitePath = expandHome(cfg.Database.SQLitePath)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("library.root", d.Library.Root)
	v.SetDefault("library.lock", d.Library.Lock)

	v.SetDefault("database.type", d.Database.Type)
	v.SetDefault("database.sqlite_path", d.Database.SQLitePath)
	v.SetDefault("database.postgres_dsn", d.Database.PostgresDSN)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)

	v.SetDefault("history.auto_commit", d.History.AutoCommit)
	v.SetDefault("history.auto_init", d.History.AutoInit)
	v.SetDefault("history.author", d.History.Author)
	v.SetDefault("history.email", d.History.Email)

	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("metrics.token", d.Metrics.Token)
	v.SetDefault("scheduler.rebuild_interval_minutes", d.Scheduler.RebuildInterval)
}

// Validate checks the configuration. The library root may be empty here;
// operations report a missing root themselves.
func (cfg *Config) Validate() error {
	switch cfg.Database.Type {
	case DatabaseSQLite:
		if cfg.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required when type is 'sqlite'")
		}
	case DatabasePostgres:
		if cfg.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required when type is 'postgres'")
		}
	default:
		return fmt.Errorf("database.type must be 'sqlite' or 'postgres', got '%s'", cfg.Database.Type)
	}

	if level := strings.ToLower(cfg.Logging.Level); level != "" && !isValidType(level, validLogLevels) {
		return fmt.Errorf("logging.level must be one of %s, got '%s'", strings.Join(validLogLevels, ", "), cfg.Logging.Level)
	}
	if f := cfg.Logging.Format; f != "" && f != LogFormatText && f != LogFormatJSON {
		return fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", f)
	}

	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen must be host:port, got '%s'", cfg.Metrics.Listen)
		}
	}

	if cfg.Scheduler.RebuildInterval < 0 {
		return fmt.Errorf("scheduler.rebuild_interval_minutes must not be negative, got %d", cfg.Scheduler.RebuildInterval)
	}
	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Library: LibraryConfig{
			Lock: true,
		},
		Database: DatabaseConfig{
			Type:       DatabaseSQLite,
			SQLitePath: filepath.Join(homeDir, ".memorylane", "db", "index.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     LogFormatText,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		History: HistoryConfig{
			Author: "Memorylane",
			Email:  "library@memorylane.local",
		},
	}
}

// expandHome replaces a leading "~/" with the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
