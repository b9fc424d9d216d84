package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "FIELDREPORT"
	defaultHTTPAddress    = "0.0.0.0:8080"
	defaultDatabasePath   = "fieldreport.db"
	defaultStorageBackend = StorageBackendSQLite
	defaultLogLevel       = "info"
	defaultProjectName    = "North Valley Solar Farm"
	defaultTimezone       = "Local"
)

// Storage backends accepted by storage.backend.
const (
	StorageBackendSQLite = "sqlite"
	StorageBackendMemory = "memory"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress        string
	DatabasePath       string
	StorageBackend     string
	LogLevel           string
	DefaultProjectName string
	Location           *time.Location
	AllowedOrigins     []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("storage.backend", defaultStorageBackend)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("report.default_project", defaultProjectName)
	configViper.SetDefault("report.timezone", defaultTimezone)
	configViper.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        strings.TrimSpace(configViper.GetString("http.address")),
		DatabasePath:       strings.TrimSpace(configViper.GetString("database.path")),
		StorageBackend:     strings.ToLower(strings.TrimSpace(configViper.GetString("storage.backend"))),
		LogLevel:           configViper.GetString("log.level"),
		DefaultProjectName: strings.TrimSpace(configViper.GetString("report.default_project")),
		AllowedOrigins:     normalizeOrigins(configViper.GetStringSlice("cors.allowed_origins")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	location, err := time.LoadLocation(strings.TrimSpace(configViper.GetString("report.timezone")))
	if err != nil {
		return AppConfig{}, fmt.Errorf("report.timezone is invalid: %w", err)
	}
	cfg.Location = location

	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.HTTPAddress == "" {
		return fmt.Errorf("http.address is required")
	}
	switch c.StorageBackend {
	case StorageBackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("database.path is required for the sqlite backend")
		}
	case StorageBackendMemory:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", StorageBackendSQLite, StorageBackendMemory, c.StorageBackend)
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("cors.allowed_origins must name at least one origin")
	}
	return nil
}

// normalizeOrigins accepts either a list or a single comma separated value, as
// environment variables deliver it.
func normalizeOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	return origins
}
