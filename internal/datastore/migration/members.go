package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

const phaseMembers = "members"

// Member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// MemberResult counts a members regeneration.
type MemberResult struct {
	Tenants int
	Members int
	Skipped int
}

func (r MemberResult) String() string {
	return fmt.Sprintf("%d members across %d tenants, %d skipped", r.Members, r.Tenants, r.Skipped)
}

// MemberMigrator expands the users and admins arrays of tenant documents into
// teams/{t}/members/{uid} records.
type MemberMigrator struct {
	cfg     *EngineConfig
	deleter *Deleter
	log     logger.Logger
}

// NewMemberMigrator creates a MemberMigrator.
func NewMemberMigrator(cfg *EngineConfig) *MemberMigrator {
	cfg = cfg.withDefaults()
	return &MemberMigrator{cfg: cfg, deleter: NewDeleter(cfg), log: cfg.Logger.Module(phaseMembers)}
}

// MigrateMembers regenerates the members collection of every tenant.
func (m *MemberMigrator) MigrateMembers(ctx context.Context) (MemberResult, error) {
	var res MemberResult
	tenants, err := datastore.QueryAll(ctx, m.cfg.Store, datastore.Query{Collection: entities.CollectionTeams}, m.cfg.PageSize)
	if err != nil {
		return res, err
	}

	for _, doc := range tenants {
		tenant, err := entities.Decode[entities.Tenant](doc.Data)
		if err != nil {
			res.Skipped++
			m.log.Warn("skipping malformed tenant", logger.String("path", doc.Path), logger.Error(err))
			continue
		}
		n, skipped, err := m.migrateTenant(ctx, doc.ID, tenant)
		if err != nil {
			return res, err
		}
		res.Tenants++
		res.Members += n
		res.Skipped += skipped
	}

	m.cfg.Metrics.RecordDocuments(phaseMembers, metrics.OutcomeCreated, res.Members)
	m.cfg.Metrics.RecordDocuments(phaseMembers, metrics.OutcomeSkipped, res.Skipped)
	m.log.Info("members regenerated", logger.Int("tenants", res.Tenants), logger.Int("members", res.Members))
	return res, nil
}

func (m *MemberMigrator) migrateTenant(ctx context.Context, tenantID string, tenant *entities.Tenant) (created, skipped int, err error) {
	collection := entities.TenantCollection(tenantID, entities.CollectionMembers)
	if _, err := m.deleter.DeleteAll(ctx, collection, m.cfg.PageSize); err != nil {
		return 0, 0, fmt.Errorf("clear %s: %w", collection, err)
	}

	admins := make(map[string]bool, len(tenant.Admins))
	for _, uid := range tenant.Admins {
		admins[strings.TrimSpace(uid)] = true
	}

	// Admins missing from users are still members.
	seen := make(map[string]bool)
	var uids []string
	for _, uid := range append(append([]string(nil), tenant.Users...), tenant.Admins...) {
		uid = strings.TrimSpace(uid)
		if seen[uid] {
			continue
		}
		seen[uid] = true
		if !validDocID(uid) {
			skipped++
			continue
		}
		uids = append(uids, uid)
	}

	w := m.cfg.newWriter()
	for _, uid := range uids {
		role := RoleMember
		if admins[uid] {
			role = RoleAdmin
		}
		data := map[string]any{
			"uid":        uid,
			"role":       role,
			"created_at": datastore.ServerTimestamp,
		}
		if err := w.Set(ctx, datastore.DocPath(collection, uid), data); err != nil {
			return created, skipped, err
		}
		created++
	}
	return created, skipped, w.Flush(ctx)
}
