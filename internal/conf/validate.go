// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	validBackends  = []string{BackendMemory, BackendSQLite, BackendMySQL, BackendFirestore}
	validLogLevels = []string{"trace", "debug", "info", "warn", "error"}
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct. Backend and log level
// names are lower-cased in place.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateStoreSettings(&settings.Store); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateMigrationSettings(&settings.Migration); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateLoggingSettings(&settings.Logging); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateStoreSettings(s *StoreSettings) error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case BackendMemory:
	case BackendSQLite:
		if s.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required for the sqlite backend")
		}
	case BackendMySQL:
		if s.MySQL.Host == "" || s.MySQL.Database == "" {
			return fmt.Errorf("store.mysql.host and store.mysql.database are required for the mysql backend")
		}
	case BackendFirestore:
		if s.Firestore.ProjectID == "" {
			return fmt.Errorf("store.firestore.projectid is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q, expected one of %s", s.Backend, strings.Join(validBackends, ", "))
	}
	return nil
}

func validateMigrationSettings(m *MigrationSettings) error {
	var errs []string
	if m.BatchSize < 1 || m.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Sprintf("migration.batchsize must be between 1 and %d, got %d", MaxBatchSize, m.BatchSize))
	}
	if m.PageSize < 1 || m.PageSize > MaxBatchSize {
		errs = append(errs, fmt.Sprintf("migration.pagesize must be between 1 and %d, got %d", MaxBatchSize, m.PageSize))
	}
	if m.TenantCacheTTL < 0 {
		errs = append(errs, "migration.tenantcachettl must not be negative")
	}
	if loc, err := m.Location(); err != nil {
		errs = append(errs, err.Error())
	} else if !noonKeepsUTCDay(loc) {
		errs = append(errs, fmt.Sprintf("migration.timezone %q is unsupported: local noon falls on a different UTC day", m.Timezone))
	}
	if len(errs) > 0 {
		return fmt.Errorf("migration settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

// noonKeepsUTCDay reports whether noon in loc stays on the same UTC calendar day in both
// winter and summer. Canonical dates rely on it to round-trip through their UTC day.
func noonKeepsUTCDay(loc *time.Location) bool {
	for _, month := range []time.Month{time.January, time.July} {
		if time.Date(2024, month, 1, 12, 0, 0, 0, loc).UTC().Day() != 1 {
			return false
		}
	}
	return true
}

func validateLoggingSettings(l *LoggingSettings) error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if !slices.Contains(validLogLevels, l.Level) {
		return fmt.Errorf("logging.level %q is invalid, expected one of %s", l.Level, strings.Join(validLogLevels, ", "))
	}
	return nil
}
