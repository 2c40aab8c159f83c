// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "WW_DEBUG", validateEnvBool},

		// Store
		{"store.backend", "WW_STORE_BACKEND", validateEnvBackend},
		{"store.sqlite.path", "WW_SQLITE_PATH", nil},
		{"store.mysql.host", "WW_MYSQL_HOST", nil},
		{"store.mysql.port", "WW_MYSQL_PORT", validateEnvPort},
		{"store.mysql.username", "WW_MYSQL_USERNAME", nil},
		{"store.mysql.password", "WW_MYSQL_PASSWORD", nil},
		{"store.mysql.database", "WW_MYSQL_DATABASE", nil},
		{"store.firestore.projectid", "WW_FIRESTORE_PROJECT_ID", nil},
		{"store.firestore.credentialsfile", "WW_FIRESTORE_CREDENTIALS_FILE", nil},

		// Migration
		{"migration.batchsize", "WW_MIGRATION_BATCH_SIZE", validateEnvBatchSize},
		{"migration.pagesize", "WW_MIGRATION_PAGE_SIZE", validateEnvBatchSize},
		{"migration.timezone", "WW_MIGRATION_TIMEZONE", validateEnvTimezone},
		{"migration.tenantcachettl", "WW_MIGRATION_TENANT_CACHE_TTL", validateEnvDuration},

		// Logging and telemetry
		{"logging.level", "WW_LOG_LEVEL", validateEnvLogLevel},
		{"logging.file", "WW_LOG_FILE", nil},
		{"telemetry.sentry.dsn", "WW_SENTRY_DSN", nil},
		{"telemetry.sentry.environment", "WW_SENTRY_ENVIRONMENT", nil},
		{"telemetry.metricsfile", "WW_METRICS_FILE", nil},
		{"telemetry.listen", "WW_METRICS_LISTEN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvBackend(value string) error {
	if !slices.Contains(validBackends, strings.ToLower(value)) {
		return fmt.Errorf("must be one of %s", strings.Join(validBackends, ", "))
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func validateEnvBatchSize(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > MaxBatchSize {
		return fmt.Errorf("must be an integer between 1 and %d", MaxBatchSize)
	}
	return nil
}

func validateEnvTimezone(value string) error {
	if value == "Local" {
		return nil
	}
	_, err := time.LoadLocation(value)
	return err
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	if !slices.Contains(validLogLevels, strings.ToLower(value)) {
		return fmt.Errorf("must be one of %s", strings.Join(validLogLevels, ", "))
	}
	return nil
}
