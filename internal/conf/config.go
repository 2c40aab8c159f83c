// conf/config.go settings for the migration tool
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Store backends understood by the CLI.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendMySQL     = "mysql"
	BackendFirestore = "firestore"
)

// MaxBatchSize mirrors the document store commit ceiling.
const MaxBatchSize = 500

// Settings is the root of the configuration tree.
type Settings struct {
	Debug bool

	Store     StoreSettings
	Migration MigrationSettings
	Logging   LoggingSettings
	Telemetry TelemetrySettings
}

// StoreSettings selects and configures the document store backend.
type StoreSettings struct {
	Backend string // memory, sqlite, mysql or firestore

	SQLite struct {
		Path string // database file
	}

	MySQL struct {
		Host     string
		Port     string
		Username string
		Password string
		Database string
	}

	Firestore struct {
		ProjectID       string
		CredentialsFile string // empty uses application default credentials
	}
}

// MigrationSettings tunes the migration engine.
type MigrationSettings struct {
	BatchSize      int           // mutations per commit, at most MaxBatchSize
	PageSize       int           // documents per page when scanning or deleting
	Timezone       string        // zone used to anchor calendar dates at local noon
	TenantCacheTTL time.Duration // how long tenant existence lookups are cached
}

// LoggingSettings configures the central logger.
type LoggingSettings struct {
	Level string
	File  string
}

// TelemetrySettings holds optional error reporting and metrics output.
type TelemetrySettings struct {
	Sentry struct {
		DSN         string
		Environment string
	}
	MetricsFile string // prometheus textfile written after each command
	Listen      string // serve /metrics on this address while a command runs, e.g. ":9090"
}

// Location resolves the configured migration timezone.
func (m *MigrationSettings) Location() (*time.Location, error) {
	switch m.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(m.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid migration timezone %q: %w", m.Timezone, err)
		}
		return loc, nil
	}
}

// Load reads defaults, the config file and environment overrides into Settings.
// When configFile is empty the default search paths are used and a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if v == nil {
		v = viper.New()
	}
	if err := initViper(v, configFile); err != nil {
		return nil, err
	}
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error getting home directory: %w", err)
	}
	return []string{
		".",
		filepath.Join(homeDir, ".config", "wooriworship"),
		"/etc/wooriworship",
	}, nil
}
