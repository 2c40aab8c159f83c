package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load(viper.New(), writeConfig(t, "debug: false\n"))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, settings.Store.Backend)
	assert.Equal(t, MaxBatchSize, settings.Migration.BatchSize)
	assert.Equal(t, MaxBatchSize, settings.Migration.PageSize)
	assert.Equal(t, 10*time.Minute, settings.Migration.TenantCacheTTL)
	assert.Equal(t, "info", settings.Logging.Level)
	assert.Equal(t, "3306", settings.Store.MySQL.Port)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: SQLite
  sqlite:
    path: /tmp/ww.db
migration:
  batchsize: 100
  pagesize: 50
  timezone: Asia/Seoul
  tenantcachettl: 30s
logging:
  level: debug
`)
	settings, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, settings.Store.Backend)
	assert.Equal(t, "/tmp/ww.db", settings.Store.SQLite.Path)
	assert.Equal(t, 100, settings.Migration.BatchSize)
	assert.Equal(t, 50, settings.Migration.PageSize)
	assert.Equal(t, 30*time.Second, settings.Migration.TenantCacheTTL)
	assert.Equal(t, "debug", settings.Logging.Level)

	loc, err := settings.Migration.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("WW_MIGRATION_BATCH_SIZE", "200")
	t.Setenv("WW_STORE_BACKEND", "firestore")
	t.Setenv("WW_FIRESTORE_PROJECT_ID", "ww-staging")

	settings, err := Load(viper.New(), writeConfig(t, "debug: true\n"))
	require.NoError(t, err)

	assert.True(t, settings.Debug)
	assert.Equal(t, 200, settings.Migration.BatchSize)
	assert.Equal(t, BackendFirestore, settings.Store.Backend)
	assert.Equal(t, "ww-staging", settings.Store.Firestore.ProjectID)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("WW_MIGRATION_BATCH_SIZE", "900")

	_, err := Load(viper.New(), writeConfig(t, "debug: false\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WW_MIGRATION_BATCH_SIZE")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	valid := func() *Settings {
		s := &Settings{}
		s.Store.Backend = BackendMemory
		s.Migration = MigrationSettings{BatchSize: 500, PageSize: 500, Timezone: "UTC"}
		s.Logging.Level = "info"
		return s
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"unknown backend", func(s *Settings) { s.Store.Backend = "postgres" }, "unknown store backend"},
		{"firestore needs project", func(s *Settings) { s.Store.Backend = BackendFirestore }, "projectid"},
		{"mysql needs database", func(s *Settings) {
			s.Store.Backend = BackendMySQL
			s.Store.MySQL.Host = "db"
		}, "store.mysql.database"},
		{"batch above ceiling", func(s *Settings) { s.Migration.BatchSize = 501 }, "migration.batchsize"},
		{"zero page size", func(s *Settings) { s.Migration.PageSize = 0 }, "migration.pagesize"},
		{"bad timezone", func(s *Settings) { s.Migration.Timezone = "Nowhere/Land" }, "timezone"},
		{"noon crosses UTC day east", func(s *Settings) { s.Migration.Timezone = "Pacific/Kiritimati" }, "different UTC day"},
		{"noon crosses UTC day west", func(s *Settings) { s.Migration.Timezone = "Etc/GMT+12" }, "different UTC day"},
		{"far east supported", func(s *Settings) { s.Migration.Timezone = "Asia/Tokyo" }, ""},
		{"bad log level", func(s *Settings) { s.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
