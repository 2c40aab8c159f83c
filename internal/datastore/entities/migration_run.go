package entities

import "time"

// RunState is the lifecycle state of a recorded migration run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// MigrationRun is the audit record written to _migration_runs/{id} for every entrypoint call.
type MigrationRun struct {
	ID           string
	Kind         string
	TenantID     string
	State        RunState
	Phase        string
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// IsActive returns true while the run has not finished.
func (r *MigrationRun) IsActive() bool {
	return r.State == RunStateRunning
}

// ToMap renders the run for writing.
func (r *MigrationRun) ToMap() map[string]any {
	out := map[string]any{
		"kind":          r.Kind,
		"state":         string(r.State),
		"phase":         r.Phase,
		"started_at":    r.StartedAt,
		"completed_at":  nil,
		"error_message": r.ErrorMessage,
	}
	if r.TenantID != "" {
		out["tenant_id"] = r.TenantID
	}
	if r.CompletedAt != nil {
		out["completed_at"] = *r.CompletedAt
	}
	return out
}
