package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	DBPath string

	// Backup
	BackupDir      string
	BackupInterval time.Duration

	// Export
	ExportDir string

	// Logging
	LogLevel string
}

// Load reads configuration from the environment. Paths default to a
// per-user data directory so a bare `register serve` works out of the
// box.
func Load() *Config {
	data := DataDir()
	return &Config{
		Port:           getEnv("PORT", "8082"),
		DBPath:         getEnv("REGISTER_DB_PATH", filepath.Join(data, "transactions.db")),
		BackupDir:      getEnv("REGISTER_BACKUP_DIR", filepath.Join(data, "backups")),
		BackupInterval: getEnvDuration("REGISTER_BACKUP_INTERVAL", time.Minute),
		ExportDir:      getEnv("REGISTER_EXPORT_DIR", filepath.Join(data, "exports")),
		LogLevel:       getEnv("REGISTER_LOG_LEVEL", "info"),
	}
}

// DataDir is where the register keeps its database, backups and exports
// unless overridden. Falls back to the working directory when the user
// config dir is unavailable.
func DataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "DailyRegister")
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}
	if c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty")
	}

	if c.BackupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be at least 1 second", c.BackupInterval))
	} else if c.BackupInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be at most 24 hours", c.BackupInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
