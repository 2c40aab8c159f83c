package migration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

// Run kinds recorded in _migration_runs.
const (
	KindFullMigration   = "full_migration"
	KindUnifiedServices = "unified_services"
	KindNukeLegacy      = "nuke_legacy"
	KindCleanupLegacy   = "cleanup_legacy"
	KindServiceTags     = "service_tags"
)

// LegacyCollections are the root-level collections removed by CleanupLegacyData.
var LegacyCollections = []string{
	entities.CollectionSchedules,
	entities.CollectionWorships,
	entities.CollectionSongs,
	entities.CollectionSheets,
	entities.CollectionSongComments,
	entities.CollectionNotices,
	entities.CollectionTags,
}

// ProgressFunc receives one human-readable line per progress event.
type ProgressFunc func(line string)

// phase is one blocking step of an orchestrated run. run returns a one-line summary.
type phase struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Engine sequences the migration components. Callers must not run two migrations
// against the same store concurrently; nothing here enforces that.
type Engine struct {
	cfg          *EngineConfig
	log          logger.Logger
	recorder     *RunRecorder
	deleter      *Deleter
	normalizer   *Normalizer
	participants *ParticipantIndexer
	relocator    *Relocator
	joiner       *Joiner
	tags         *TagMigrator
	members      *MemberMigrator
}

// NewEngine builds an Engine over cfg.Store.
func NewEngine(cfg *EngineConfig) *Engine {
	if cfg == nil || cfg.Store == nil {
		panic("migration: EngineConfig.Store is required")
	}
	cfg = cfg.withDefaults()
	cfg.Logger = cfg.Logger.Module(componentMigration)
	resolver := NewTenantResolver(cfg.Store, cfg.TenantCacheTTL)

	return &Engine{
		cfg:          cfg,
		log:          cfg.Logger,
		recorder:     NewRunRecorder(cfg.Store, cfg.Now, cfg.Logger),
		deleter:      NewDeleter(cfg),
		normalizer:   NewNormalizer(cfg),
		participants: NewParticipantIndexer(cfg),
		relocator:    NewRelocator(cfg, resolver),
		joiner:       NewJoiner(cfg),
		tags:         NewTagMigrator(cfg, resolver),
		members:      NewMemberMigrator(cfg),
	}
}

// RunFullMigration moves the flat legacy layout to the tenant-scoped one:
// normalize, participants, relocate, tags, members. The first failing phase ends the
// run; phases already committed stay committed.
func (e *Engine) RunFullMigration(ctx context.Context, onProgress ProgressFunc) error {
	phases := []phase{
		{name: phaseNormalize, run: func(ctx context.Context) (string, error) {
			res, err := e.normalizer.Normalize(ctx)
			return res.String(), err
		}},
		{name: phaseParticipants, run: func(ctx context.Context) (string, error) {
			res, err := e.participants.Index(ctx)
			return res.String(), err
		}},
		{name: phaseRelocate, run: func(ctx context.Context) (string, error) {
			results, err := e.relocator.RelocateAll(ctx)
			parts := make([]string, 0, len(results))
			for _, res := range results {
				parts = append(parts, res.String())
			}
			return strings.Join(parts, "; "), err
		}},
		{name: phaseTags, run: func(ctx context.Context) (string, error) {
			res, err := e.tags.MigrateTags(ctx)
			return res.String(), err
		}},
		{name: phaseMembers, run: func(ctx context.Context) (string, error) {
			res, err := e.members.MigrateMembers(ctx)
			return res.String(), err
		}},
	}
	return e.runPhases(ctx, KindFullMigration, "", phases, onProgress)
}

// MigrateToUnifiedServices rebuilds the unified services of one tenant from its
// schedules and worships, deleting any existing services first.
func (e *Engine) MigrateToUnifiedServices(ctx context.Context, tenantID string) (JoinResult, error) {
	var res JoinResult
	if !validDocID(tenantID) {
		return res, ErrNoTenant
	}
	err := e.runPhases(ctx, KindUnifiedServices, tenantID, []phase{
		{name: phaseJoin, run: func(ctx context.Context) (string, error) {
			var err error
			res, err = e.joiner.Rebuild(ctx, tenantID)
			return res.String(), err
		}},
	}, nil)
	return res, err
}

// NukeLegacyCollections deletes the tenant-scoped schedules and worships of one tenant.
func (e *Engine) NukeLegacyCollections(ctx context.Context, tenantID string) error {
	if !validDocID(tenantID) {
		return ErrNoTenant
	}
	phases := make([]phase, 0, 2)
	for _, name := range []string{entities.CollectionSchedules, entities.CollectionWorships} {
		phases = append(phases, e.deletePhase(entities.TenantCollection(tenantID, name)))
	}
	return e.runPhases(ctx, KindNukeLegacy, tenantID, phases, nil)
}

// CleanupLegacyData deletes every root-level legacy collection.
func (e *Engine) CleanupLegacyData(ctx context.Context, onProgress ProgressFunc) error {
	phases := make([]phase, 0, len(LegacyCollections))
	for _, collection := range LegacyCollections {
		phases = append(phases, e.deletePhase(collection))
	}
	return e.runPhases(ctx, KindCleanupLegacy, "", phases, onProgress)
}

// MigrateServiceTagsToSubcollection promotes the tenant document's embedded service
// tags to individual records, merging into existing ones.
func (e *Engine) MigrateServiceTagsToSubcollection(ctx context.Context, tenantID string) (ServiceTagResult, error) {
	var res ServiceTagResult
	if !validDocID(tenantID) {
		return res, ErrNoTenant
	}
	err := e.runPhases(ctx, KindServiceTags, tenantID, []phase{
		{name: phaseServiceTags, run: func(ctx context.Context) (string, error) {
			var err error
			res, err = e.tags.MigrateServiceTags(ctx, tenantID)
			return res.String(), err
		}},
	}, nil)
	return res, err
}

func (e *Engine) deletePhase(collection string) phase {
	return phase{name: "delete " + collection, run: func(ctx context.Context) (string, error) {
		res, err := e.deleter.DeleteAll(ctx, collection, e.cfg.PageSize)
		return fmt.Sprintf("%d documents deleted in %d pages", res.Deleted, res.Pages), err
	}}
}

func (e *Engine) runPhases(ctx context.Context, kind, tenantID string, phases []phase, onProgress ProgressFunc) (err error) {
	if onProgress == nil {
		onProgress = func(string) {}
	}

	run := e.recorder.Start(ctx, kind, tenantID)
	ctx = logger.WithTraceID(ctx, run.ID)
	log := e.log.WithContext(ctx).With(logger.String("kind", kind))
	if tenantID != "" {
		log = log.With(logger.String("tenant_id", tenantID))
	}
	defer func() { e.recorder.Finish(ctx, run, err) }()

	log.Info("migration started", logger.Int("phases", len(phases)))
	start := time.Now()

	for _, p := range phases {
		e.recorder.Phase(ctx, run, p.name)
		onProgress(fmt.Sprintf("▶ %s: starting", p.name))

		phaseStart := time.Now()
		summary, phaseErr := p.run(ctx)
		elapsed := time.Since(phaseStart)

		if phaseErr != nil {
			e.cfg.Metrics.RecordPhase(p.name, metrics.StatusError, elapsed)
			onProgress(fmt.Sprintf("✖ migration failed during %s: %v", p.name, phaseErr))
			log.Error("phase failed",
				logger.String("phase", p.name),
				logger.Duration("elapsed", elapsed),
				logger.Error(phaseErr))
			return e.phaseError(p.name, kind, tenantID, elapsed, phaseErr)
		}

		e.cfg.Metrics.RecordPhase(p.name, metrics.StatusSuccess, elapsed)
		onProgress(fmt.Sprintf("✔ %s: %s", p.name, summary))
		log.Info("phase completed",
			logger.String("phase", p.name),
			logger.String("summary", summary),
			logger.Duration("elapsed", elapsed))
	}

	log.Info("migration completed", logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (e *Engine) phaseError(name, kind, tenantID string, elapsed time.Duration, err error) error {
	category := errors.CategoryMigration
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		category = errors.CategoryCancellation
	}
	b := errors.New(fmt.Errorf("phase %s: %w", name, err)).
		Component(componentMigration).
		Category(category).
		Context("kind", kind).
		Timing(name, elapsed)
	if tenantID != "" {
		b = b.Context("tenant_id", tenantID)
	}
	return b.Build()
}
