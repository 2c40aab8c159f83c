// Package migration evolves the document store from the flat legacy layout to tenant-scoped
// collections and from there to unified services.
//
// Every component stages its writes through a BatchWriter so no commit exceeds the store's
// mutation ceiling. Components are plain values built from an EngineConfig; the Engine
// sequences them and reports progress.
package migration

import (
	"io"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

const componentMigration = "migration"

// DefaultTenantCacheTTL bounds how long tenant existence lookups are reused.
const DefaultTenantCacheTTL = 10 * time.Minute

var (
	// ErrNoTenant indicates a document carries no usable tenant reference.
	ErrNoTenant = errors.NewStd("document has no tenant id")

	// ErrUnknownTenant indicates the referenced tenant document does not exist.
	ErrUnknownTenant = errors.NewStd("tenant does not exist")

	// ErrNoDate indicates a document has no resolvable date.
	ErrNoDate = errors.NewStd("document has no resolvable date")
)

// EngineConfig carries the dependencies shared by every migration component.
type EngineConfig struct {
	Store   datastore.Store
	Logger  logger.Logger
	Metrics *metrics.MigrationMetrics // optional

	// BatchSize is the mutation count per commit, clamped to 1..datastore.MaxBatchSize.
	BatchSize int
	// PageSize is the number of documents fetched per query, clamped the same way.
	PageSize int
	// Location is the zone whose noon anchors normalized dates.
	Location *time.Location
	// TenantCacheTTL bounds how long tenant lookups are cached.
	TenantCacheTTL time.Duration
	// Now supplies the time used where a legacy record lacks one.
	Now func() time.Time
}

// withDefaults returns a copy of cfg with every unset option filled in.
func (cfg *EngineConfig) withDefaults() *EngineConfig {
	out := *cfg
	out.BatchSize = clampBatch(out.BatchSize)
	out.PageSize = clampBatch(out.PageSize)
	if out.Logger == nil {
		out.Logger = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	if out.Location == nil {
		out.Location = time.Local
	}
	if out.TenantCacheTTL <= 0 {
		out.TenantCacheTTL = DefaultTenantCacheTTL
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

func (cfg *EngineConfig) newWriter() *BatchWriter {
	return NewBatchWriter(cfg.Store, cfg.BatchSize, cfg.Metrics, cfg.Logger)
}

func clampBatch(n int) int {
	if n <= 0 || n > datastore.MaxBatchSize {
		return datastore.MaxBatchSize
	}
	return n
}
