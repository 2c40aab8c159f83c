// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.sqlite.path", "wooriworship.db")
	v.SetDefault("store.mysql.host", "localhost")
	v.SetDefault("store.mysql.port", "3306")
	v.SetDefault("store.mysql.username", "")
	v.SetDefault("store.mysql.password", "")
	v.SetDefault("store.mysql.database", "wooriworship")
	v.SetDefault("store.firestore.projectid", "")
	v.SetDefault("store.firestore.credentialsfile", "")

	v.SetDefault("migration.batchsize", MaxBatchSize)
	v.SetDefault("migration.pagesize", MaxBatchSize)
	v.SetDefault("migration.timezone", "Local")
	v.SetDefault("migration.tenantcachettl", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	v.SetDefault("telemetry.sentry.dsn", "")
	v.SetDefault("telemetry.sentry.environment", "production")
	v.SetDefault("telemetry.metricsfile", "")
	v.SetDefault("telemetry.listen", "")
}
