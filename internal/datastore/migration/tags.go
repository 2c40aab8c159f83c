package migration

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

const (
	phaseTags        = "tags"
	phaseServiceTags = "service_tags"

	// legacyTagDelimiter separates the tenant id from the tag name in legacy tag ids.
	legacyTagDelimiter = "-스플릿-"
)

// SplitLegacyTagID splits a legacy "{tenant}-스플릿-{name}" id on the first delimiter,
// so delimiters inside the name survive.
func SplitLegacyTagID(id string) (tenantID, name string, ok bool) {
	tenantID, name, ok = strings.Cut(id, legacyTagDelimiter)
	if !ok || strings.TrimSpace(tenantID) == "" || strings.TrimSpace(name) == "" {
		return "", "", false
	}
	return tenantID, name, true
}

// validDocID reports whether s can be used as a single path segment.
func validDocID(s string) bool {
	return strings.TrimSpace(s) != "" && !strings.Contains(s, "/")
}

// TagResult counts a tags regeneration.
type TagResult struct {
	Tenants int
	Created int
	Skipped int
}

func (r TagResult) String() string {
	return fmt.Sprintf("%d tags across %d tenants, %d skipped", r.Created, r.Tenants, r.Skipped)
}

// ServiceTagResult counts a service tag promotion.
type ServiceTagResult struct {
	Upserted int
	Skipped  int
}

func (r ServiceTagResult) String() string {
	return fmt.Sprintf("%d service tags upserted, %d skipped", r.Upserted, r.Skipped)
}

type legacyTag struct {
	name string
	data map[string]any
}

// TagMigrator moves legacy tags into tenant-scoped collections.
type TagMigrator struct {
	cfg      *EngineConfig
	resolver *TenantResolver
	deleter  *Deleter
	log      logger.Logger
}

// NewTagMigrator creates a TagMigrator. A nil resolver gets a fresh one.
func NewTagMigrator(cfg *EngineConfig, resolver *TenantResolver) *TagMigrator {
	cfg = cfg.withDefaults()
	if resolver == nil {
		resolver = NewTenantResolver(cfg.Store, cfg.TenantCacheTTL)
	}
	return &TagMigrator{cfg: cfg, resolver: resolver, deleter: NewDeleter(cfg), log: cfg.Logger.Module(phaseTags)}
}

// MigrateTags regenerates teams/{t}/tags for every tenant referenced by the root tags
// collection: the tenant collection is emptied and rewritten from the legacy records.
func (m *TagMigrator) MigrateTags(ctx context.Context) (TagResult, error) {
	var res TagResult
	byTenant := make(map[string][]legacyTag)

	err := datastore.Scan(ctx, m.cfg.Store, datastore.Query{Collection: entities.CollectionTags}, m.cfg.PageSize,
		func(doc datastore.Document) error {
			tenantID, name, ok := SplitLegacyTagID(doc.ID)
			if !ok || !validDocID(tenantID) || !validDocID(name) {
				res.Skipped++
				m.log.Warn("skipping malformed tag id", logger.String("id", doc.ID))
				return nil
			}
			exists, err := m.resolver.Exists(ctx, tenantID)
			if err != nil {
				return err
			}
			if !exists {
				res.Skipped++
				m.log.Warn("skipping tag of unknown tenant", logger.String("id", doc.ID))
				return nil
			}
			byTenant[tenantID] = append(byTenant[tenantID], legacyTag{name: name, data: doc.Data})
			return nil
		})
	if err != nil {
		return res, err
	}

	tenants := make([]string, 0, len(byTenant))
	for tenantID := range byTenant {
		tenants = append(tenants, tenantID)
	}
	slices.Sort(tenants)

	for _, tenantID := range tenants {
		collection := entities.TenantCollection(tenantID, entities.CollectionTags)
		if _, err := m.deleter.DeleteAll(ctx, collection, m.cfg.PageSize); err != nil {
			return res, fmt.Errorf("clear %s: %w", collection, err)
		}

		w := m.cfg.newWriter()
		for _, tag := range byTenant[tenantID] {
			data := datastore.CloneData(tag.data)
			if data == nil {
				data = map[string]any{}
			}
			delete(data, "team_id")
			delete(data, "teamId")
			data["name"] = tag.name
			if _, ok := data["created_at"]; !ok {
				data["created_at"] = datastore.ServerTimestamp
			}
			if err := w.Set(ctx, datastore.DocPath(collection, tag.name), data); err != nil {
				return res, err
			}
			res.Created++
		}
		if err := w.Flush(ctx); err != nil {
			return res, err
		}
		res.Tenants++
	}

	m.cfg.Metrics.RecordDocuments(phaseTags, metrics.OutcomeCreated, res.Created)
	m.cfg.Metrics.RecordDocuments(phaseTags, metrics.OutcomeSkipped, res.Skipped)
	m.log.Info("tags regenerated", logger.Int("tenants", res.Tenants), logger.Int("tags", res.Created))
	return res, nil
}

// MigrateServiceTags promotes the service_tags array embedded in the tenant document to
// teams/{t}/service_tags/{name}, merging into any existing records.
func (m *TagMigrator) MigrateServiceTags(ctx context.Context, tenantID string) (ServiceTagResult, error) {
	var res ServiceTagResult
	if !validDocID(tenantID) {
		return res, ErrNoTenant
	}

	doc, err := m.cfg.Store.Get(ctx, entities.TenantPath(tenantID))
	if err != nil {
		return res, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	tenant, err := entities.Decode[entities.Tenant](doc.Data)
	if err != nil {
		return res, fmt.Errorf("decode tenant %s: %w", tenantID, err)
	}

	collection := entities.TenantCollection(tenantID, entities.CollectionServiceTags)
	w := m.cfg.newWriter()
	for _, raw := range tenant.ServiceTags {
		name, legacyID := serviceTagName(raw)
		if !validDocID(name) {
			res.Skipped++
			m.log.Warn("skipping service tag without usable name",
				logger.String("tenant_id", tenantID), logger.Any("value", raw))
			continue
		}
		data := map[string]any{
			"name":       name,
			"updated_at": datastore.ServerTimestamp,
		}
		if legacyID != "" {
			data["legacy_id"] = legacyID
		}
		if err := w.SetMerge(ctx, datastore.DocPath(collection, name), data); err != nil {
			return res, err
		}
		res.Upserted++
	}
	if err := w.Flush(ctx); err != nil {
		return res, err
	}

	m.cfg.Metrics.RecordDocuments(phaseServiceTags, metrics.OutcomeUpdated, res.Upserted)
	m.cfg.Metrics.RecordDocuments(phaseServiceTags, metrics.OutcomeSkipped, res.Skipped)
	m.log.Info("service tags promoted",
		logger.String("tenant_id", tenantID),
		logger.Int("upserted", res.Upserted),
		logger.Int("skipped", res.Skipped))
	return res, nil
}

// serviceTagName accepts a plain string or an {id, name} map.
func serviceTagName(raw any) (name, legacyID string) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), ""
	case map[string]any:
		name, _ = v["name"].(string)
		legacyID, _ = v["id"].(string)
		return strings.TrimSpace(name), legacyID
	default:
		return "", ""
	}
}
