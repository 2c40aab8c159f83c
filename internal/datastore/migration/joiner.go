package migration

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

const phaseJoin = "join"

// source identifies which legacy collection contributed to a join entry.
type source int

const (
	sourceSchedule source = iota
	sourceAggregate
)

// titleSourcePriority orders the sources whose title a service takes when both
// contribute to it. Schedule titles win over aggregate titles.
var titleSourcePriority = []source{sourceSchedule, sourceAggregate}

// fallbackTitles is used when the title-giving source has a blank title.
var fallbackTitles = map[source]string{
	sourceSchedule:  "Service",
	sourceAggregate: "Worship Service",
}

func outranks(a, b source) bool {
	return slices.Index(titleSourcePriority, a) < slices.Index(titleSourcePriority, b)
}

// JoinKey derives the key correlating schedules and aggregates: the UTC calendar day of
// date, followed by "_" and the sorted, deduplicated non-blank tags joined by "_" when
// any exist.
func JoinKey(date time.Time, tags []string) string {
	key := date.UTC().Format(time.DateOnly)
	sorted := entities.NonBlank(tags)
	if len(sorted) == 0 {
		return key
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return key + "_" + strings.Join(sorted, "_")
}

// JoinResult counts what a join produced.
type JoinResult struct {
	Services          int
	Setlists          int
	Bands             int
	Flows             int
	SkippedSchedules  int
	SkippedAggregates int
}

func (r JoinResult) String() string {
	return fmt.Sprintf("%d services (%d setlists, %d bands, %d flows), skipped %d schedules and %d worships",
		r.Services, r.Setlists, r.Bands, r.Flows, r.SkippedSchedules, r.SkippedAggregates)
}

type scheduleSide struct {
	id       string
	schedule *entities.LegacySchedule
}

type aggregateSide struct {
	id        string
	aggregate *entities.LegacyAggregate
}

// joinEntry accumulates the sources of one future service.
type joinEntry struct {
	key         string
	date        time.Time
	tagID       *string
	title       string
	titleSource source
	who         *scheduleSide
	what        *aggregateSide
}

func (e *joinEntry) offerTitle(src source, title string) {
	if e.title != "" && !outranks(src, e.titleSource) {
		return
	}
	if strings.TrimSpace(title) == "" {
		title = fallbackTitles[src]
	}
	e.title = title
	e.titleSource = src
}

// joinMap keeps entries in insertion order so materialization is deterministic.
type joinMap struct {
	entries map[string]*joinEntry
	order   []string
}

func newJoinMap() *joinMap {
	return &joinMap{entries: make(map[string]*joinEntry)}
}

func (m *joinMap) entry(key string, date time.Time, tags []string) (*joinEntry, bool) {
	if e, ok := m.entries[key]; ok {
		return e, false
	}
	e := &joinEntry{key: key, date: date}
	if nonBlank := entities.NonBlank(tags); len(nonBlank) > 0 {
		e.tagID = &nonBlank[0]
	}
	m.entries[key] = e
	m.order = append(m.order, key)
	return e, true
}

// Joiner merges a tenant's schedules and worships into unified services.
type Joiner struct {
	cfg     *EngineConfig
	deleter *Deleter
	log     logger.Logger
}

// NewJoiner creates a Joiner.
func NewJoiner(cfg *EngineConfig) *Joiner {
	cfg = cfg.withDefaults()
	return &Joiner{cfg: cfg, deleter: NewDeleter(cfg), log: cfg.Logger.Module(phaseJoin)}
}

// Rebuild deletes the tenant's existing services and their sub-entities, then joins again.
// Services always get fresh ids, so joining without the delete would duplicate them.
func (j *Joiner) Rebuild(ctx context.Context, tenantID string) (JoinResult, error) {
	if strings.TrimSpace(tenantID) == "" {
		return JoinResult{}, ErrNoTenant
	}
	for _, name := range []string{
		entities.CollectionServices,
		entities.CollectionServiceSetlists,
		entities.CollectionServiceBands,
		entities.CollectionServiceFlows,
	} {
		if _, err := j.deleter.DeleteAll(ctx, entities.TenantCollection(tenantID, name), j.cfg.PageSize); err != nil {
			return JoinResult{}, fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return j.Join(ctx, tenantID)
}

// Join builds one service per distinct join key across the tenant's schedules and worships.
func (j *Joiner) Join(ctx context.Context, tenantID string) (JoinResult, error) {
	var res JoinResult
	log := j.log.With(logger.String("tenant_id", tenantID))
	entries := newJoinMap()

	err := datastore.Scan(ctx, j.cfg.Store,
		datastore.Query{Collection: entities.TenantCollection(tenantID, entities.CollectionSchedules)}, j.cfg.PageSize,
		func(doc datastore.Document) error {
			schedule, err := entities.Decode[entities.LegacySchedule](doc.Data)
			if err != nil || !schedule.Date.Valid {
				res.SkippedSchedules++
				log.Debug("skipping schedule without date", logger.String("path", doc.Path))
				return nil
			}
			e, _ := entries.entry(JoinKey(schedule.Date.Time, schedule.Tags), schedule.Date.Time, schedule.Tags)
			e.offerTitle(sourceSchedule, schedule.Title)
			e.who = &scheduleSide{id: doc.ID, schedule: schedule}
			return nil
		})
	if err != nil {
		return res, err
	}

	err = datastore.Scan(ctx, j.cfg.Store,
		datastore.Query{Collection: entities.TenantCollection(tenantID, entities.CollectionWorships)}, j.cfg.PageSize,
		func(doc datastore.Document) error {
			aggregate, err := entities.Decode[entities.LegacyAggregate](doc.Data)
			if err != nil || !aggregate.WorshipDate.Valid {
				res.SkippedAggregates++
				log.Debug("skipping worship without date", logger.String("path", doc.Path))
				return nil
			}
			e, _ := entries.entry(JoinKey(aggregate.WorshipDate.Time, aggregate.Tags), aggregate.WorshipDate.Time, aggregate.Tags)
			e.offerTitle(sourceAggregate, aggregate.Title)
			e.what = &aggregateSide{id: doc.ID, aggregate: aggregate}
			return nil
		})
	if err != nil {
		return res, err
	}

	w := j.cfg.newWriter()
	for _, key := range entries.order {
		if err := j.materialize(ctx, w, tenantID, entries.entries[key], &res); err != nil {
			return res, err
		}
	}
	if err := w.Flush(ctx); err != nil {
		return res, err
	}

	j.cfg.Metrics.RecordDocuments(phaseJoin, metrics.OutcomeCreated, res.Services+res.Setlists+res.Bands+res.Flows)
	j.cfg.Metrics.RecordDocuments(phaseJoin, metrics.OutcomeSkipped, res.SkippedSchedules+res.SkippedAggregates)
	log.Info("services materialized",
		logger.Int("services", res.Services),
		logger.Int("setlists", res.Setlists),
		logger.Int("bands", res.Bands),
		logger.Int("flows", res.Flows))
	return res, nil
}

func (j *Joiner) materialize(ctx context.Context, w *BatchWriter, tenantID string, e *joinEntry, res *JoinResult) error {
	serviceID := j.cfg.Store.NewID()
	svc := entities.UnifiedService{Title: e.title, Date: e.date, TagID: e.tagID}
	if e.who != nil {
		svc.ScheduleID = e.who.id
	}
	if e.what != nil {
		svc.WorshipID = e.what.id
	}

	docPath := func(collection string) string {
		return datastore.DocPath(entities.TenantCollection(tenantID, collection), serviceID)
	}

	if err := w.Set(ctx, docPath(entities.CollectionServices), svc.ToMap()); err != nil {
		return err
	}
	res.Services++

	if e.what != nil {
		a := e.what.aggregate
		setlist := entities.Setlist{
			ServiceID:     serviceID,
			Songs:         a.Songs,
			BeginningSong: a.BeginningSong,
			EndingSong:    a.EndingSong,
			Description:   a.Description,
			Link:          a.Link,
		}
		if err := w.Set(ctx, docPath(entities.CollectionServiceSetlists), setlist.ToMap()); err != nil {
			return err
		}
		res.Setlists++
	}

	if e.who == nil {
		return nil
	}
	if roles := e.who.schedule.RoleAssignments(); len(roles) > 0 {
		band := entities.Band{ServiceID: serviceID, Roles: roles}
		if err := w.Set(ctx, docPath(entities.CollectionServiceBands), band.ToMap()); err != nil {
			return err
		}
		res.Bands++
	}
	if items := e.who.schedule.Items; len(items) > 0 {
		flow := entities.Flow{ServiceID: serviceID, Items: items}
		if err := w.Set(ctx, docPath(entities.CollectionServiceFlows), flow.ToMap()); err != nil {
			return err
		}
		res.Flows++
	}
	return nil
}
