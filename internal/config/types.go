// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config represents the complete application configuration
type Config struct {
	Library   LibraryConfig   `mapstructure:"library"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	History   HistoryConfig   `mapstructure:"history"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LibraryConfig locates the memory library on disk
type LibraryConfig struct {
	Root string `mapstructure:"root"`
	Lock bool   `mapstructure:"lock"` // take .memorylane/lock for mutating operations
}

// DatabaseConfig holds index store connection settings
type DatabaseConfig struct {
	Type        string `mapstructure:"type"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// LoggingConfig mirrors logging.Options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "text" or "json"
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// HistoryConfig controls git commits of engine changes
type HistoryConfig struct {
	AutoCommit bool   `mapstructure:"auto_commit"`
	AutoInit   bool   `mapstructure:"auto_init"` // git init the library when it is not a repository
	Author     string `mapstructure:"author"`
	Email      string `mapstructure:"email"`
}

// MetricsConfig holds the Prometheus endpoint used in serve mode
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // empty disables the endpoint
	Token  string `mapstructure:"token"`  // bearer token required by the endpoint when set
}

// SchedulerConfig holds periodic rebuild settings for serve mode
type SchedulerConfig struct {
	RebuildInterval int `mapstructure:"rebuild_interval_minutes"` // 0 disables
}

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// isValidType is a generic helper to check if a type is in a list of valid types
func isValidType(aType string, validTypes []string) bool {
	for _, valid := range validTypes {
		if aType == valid {
			return true
		}
	}
	return false
}
