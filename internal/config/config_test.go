package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:           "8082",
		DBPath:         "./data/transactions.db",
		BackupDir:      "./data/backups",
		BackupInterval: time.Minute,
		ExportDir:      "./data/exports",
		LogLevel:       "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:        "non-numeric port",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errContains: "invalid port 'abc'",
		},
		{
			name:        "port out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errContains: "must be between 1 and 65535",
		},
		{
			name:        "empty db path",
			mutate:      func(c *Config) { c.DBPath = "" },
			wantErr:     true,
			errContains: "database path cannot be empty",
		},
		{
			name:        "empty backup dir",
			mutate:      func(c *Config) { c.BackupDir = "" },
			wantErr:     true,
			errContains: "backup directory cannot be empty",
		},
		{
			name:        "backup interval too short",
			mutate:      func(c *Config) { c.BackupInterval = 100 * time.Millisecond },
			wantErr:     true,
			errContains: "at least 1 second",
		},
		{
			name:        "backup interval too long",
			mutate:      func(c *Config) { c.BackupInterval = 48 * time.Hour },
			wantErr:     true,
			errContains: "at most 24 hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error %q does not contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "REGISTER_DB_PATH", "REGISTER_BACKUP_DIR", "REGISTER_BACKUP_INTERVAL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8082" {
		t.Fatalf("default port = %s", cfg.Port)
	}
	if cfg.BackupInterval != time.Minute {
		t.Fatalf("default backup interval = %v", cfg.BackupInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REGISTER_DB_PATH", "/tmp/reg.db")
	t.Setenv("REGISTER_BACKUP_INTERVAL", "5m")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DBPath != "/tmp/reg.db" || cfg.BackupInterval != 5*time.Minute {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
}
