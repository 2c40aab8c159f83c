package migration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// RunRecorder keeps an audit record per entrypoint call in _migration_runs.
// Failing to write a record never fails the migration itself.
type RunRecorder struct {
	store datastore.Store
	now   func() time.Time
	log   logger.Logger
}

// NewRunRecorder creates a RunRecorder.
func NewRunRecorder(store datastore.Store, now func() time.Time, log logger.Logger) *RunRecorder {
	return &RunRecorder{store: store, now: now, log: log.Module("runs")}
}

// Start records a new running migration of the given kind.
func (r *RunRecorder) Start(ctx context.Context, kind, tenantID string) *entities.MigrationRun {
	run := &entities.MigrationRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		TenantID:  tenantID,
		State:     entities.RunStateRunning,
		StartedAt: r.now().UTC(),
	}
	r.save(ctx, run)
	return run
}

// Phase records the phase a run has entered.
func (r *RunRecorder) Phase(ctx context.Context, run *entities.MigrationRun, phase string) {
	run.Phase = phase
	r.save(ctx, run)
}

// Finish marks the run completed, or failed when err is non-nil.
func (r *RunRecorder) Finish(ctx context.Context, run *entities.MigrationRun, err error) {
	if !run.IsActive() {
		return
	}
	completed := r.now().UTC()
	run.CompletedAt = &completed
	run.State = entities.RunStateCompleted
	if err != nil {
		run.State = entities.RunStateFailed
		run.ErrorMessage = err.Error()
	}
	// The caller's context may already be cancelled; the final state is still worth keeping.
	r.save(context.WithoutCancel(ctx), run)
}

func (r *RunRecorder) save(ctx context.Context, run *entities.MigrationRun) {
	b := r.store.Batch()
	b.Set(datastore.DocPath(entities.CollectionRuns, run.ID), run.ToMap())
	if err := b.Commit(ctx); err != nil {
		r.log.Warn("failed to record migration run",
			logger.String("run_id", run.ID),
			logger.String("state", string(run.State)),
			logger.Error(err))
	}
}
