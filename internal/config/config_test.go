package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" || cfg.DatabasePath != "fieldreport.db" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.StorageBackend != StorageBackendSQLite || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.DefaultProjectName != "North Valley Solar Farm" {
		t.Fatalf("unexpected project %q", cfg.DefaultProjectName)
	}
	if cfg.Location == nil || cfg.Location.String() != "Local" {
		t.Fatalf("unexpected location %v", cfg.Location)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %#v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FIELDREPORT_STORAGE_BACKEND", "Memory")
	t.Setenv("FIELDREPORT_REPORT_TIMEZONE", "UTC")
	t.Setenv("FIELDREPORT_CORS_ALLOWED_ORIGINS", "https://crew.example.com, https://office.example.com")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageBackend != StorageBackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.StorageBackend)
	}
	if cfg.Location.String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Location)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://office.example.com" {
		t.Fatalf("unexpected origins %#v", cfg.AllowedOrigins)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldreport.yaml")
	contents := strings.Join([]string{
		"report:",
		"  default_project: Desert Ridge",
		"  timezone: UTC",
		"cors:",
		"  allowed_origins:",
		"    - https://crew.example.com",
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	configViper := NewViper()
	configViper.SetConfigFile(path)
	if err := configViper.ReadInConfig(); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultProjectName != "Desert Ridge" || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://crew.example.com" {
		t.Fatalf("unexpected origins %#v", cfg.AllowedOrigins)
	}
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		value    any
		contains string
	}{
		{name: "unknown backend", key: "storage.backend", value: "postgres", contains: "storage.backend"},
		{name: "sqlite without path", key: "database.path", value: " ", contains: "database.path"},
		{name: "blank address", key: "http.address", value: "", contains: "http.address"},
		{name: "bad timezone", key: "report.timezone", value: "Mars/Olympus", contains: "report.timezone"},
		{name: "no origins", key: "cors.allowed_origins", value: []string{}, contains: "cors.allowed_origins"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set(testCase.key, testCase.value)
			_, err := Load(configViper)
			if err == nil || !strings.Contains(err.Error(), testCase.contains) {
				t.Fatalf("expected error mentioning %s, got %v", testCase.contains, err)
			}
		})
	}
}
