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

const phaseParticipants = "participants"

// IndexResult counts schedules by outcome.
type IndexResult struct {
	Scanned   int
	Updated   int
	Unchanged int
	Skipped   int
}

func (r IndexResult) String() string {
	return fmt.Sprintf("%d scanned, %d updated, %d unchanged, %d skipped",
		r.Scanned, r.Updated, r.Unchanged, r.Skipped)
}

// CollectParticipants returns the sorted, deduplicated member ids referenced by the
// schedule's top-level role assignments and its items' assignments.
func CollectParticipants(s *entities.LegacySchedule) []string {
	seen := make(map[string]struct{})
	collect := func(roles []entities.RoleAssignment) {
		for _, role := range roles {
			for _, id := range role.MemberIDs {
				if id = strings.TrimSpace(id); id != "" {
					seen[id] = struct{}{}
				}
			}
		}
	}

	collect(s.WorshipRoles)
	collect(s.Roles)
	for _, item := range s.Items {
		collect(item.Assignments)
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ParticipantIndexer maintains the derived participants field of schedules.
type ParticipantIndexer struct {
	cfg *EngineConfig
	log logger.Logger
}

// NewParticipantIndexer creates a ParticipantIndexer.
func NewParticipantIndexer(cfg *EngineConfig) *ParticipantIndexer {
	cfg = cfg.withDefaults()
	return &ParticipantIndexer{cfg: cfg, log: cfg.Logger.Module(phaseParticipants)}
}

// Index recomputes participants for the legacy root schedules collection.
func (p *ParticipantIndexer) Index(ctx context.Context) (IndexResult, error) {
	return p.indexCollection(ctx, entities.CollectionSchedules)
}

// IndexTenant recomputes participants for one tenant's schedules.
func (p *ParticipantIndexer) IndexTenant(ctx context.Context, tenantID string) (IndexResult, error) {
	if strings.TrimSpace(tenantID) == "" {
		return IndexResult{}, ErrNoTenant
	}
	return p.indexCollection(ctx, entities.TenantCollection(tenantID, entities.CollectionSchedules))
}

func (p *ParticipantIndexer) indexCollection(ctx context.Context, collection string) (IndexResult, error) {
	var res IndexResult
	w := p.cfg.newWriter()

	err := datastore.Scan(ctx, p.cfg.Store, datastore.Query{Collection: collection}, p.cfg.PageSize,
		func(doc datastore.Document) error {
			res.Scanned++
			schedule, err := entities.Decode[entities.LegacySchedule](doc.Data)
			if err != nil {
				res.Skipped++
				p.log.Warn("skipping malformed schedule", logger.String("path", doc.Path), logger.Error(err))
				return nil
			}

			participants := CollectParticipants(schedule)
			if _, present := doc.Data["participants"]; present && slices.Equal(sortedCopy(schedule.Participants), participants) {
				res.Unchanged++
				return nil
			}

			res.Updated++
			return w.Update(ctx, doc.Path, map[string]any{"participants": participants})
		})
	if err != nil {
		return res, err
	}
	if err := w.Flush(ctx); err != nil {
		return res, err
	}

	p.cfg.Metrics.RecordDocuments(phaseParticipants, metrics.OutcomeUpdated, res.Updated)
	p.cfg.Metrics.RecordDocuments(phaseParticipants, metrics.OutcomeUnchanged, res.Unchanged)
	p.cfg.Metrics.RecordDocuments(phaseParticipants, metrics.OutcomeSkipped, res.Skipped)
	p.log.Info("participants indexed",
		logger.String("collection", collection),
		logger.Int("updated", res.Updated),
		logger.Int("unchanged", res.Unchanged))
	return res, nil
}

func sortedCopy(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
