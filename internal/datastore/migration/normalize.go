package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

const phaseNormalize = "normalize"

// NormalizeTarget names a date-like field of a collection.
type NormalizeTarget struct {
	Collection string
	Field      string
}

// DefaultNormalizeTargets are the legacy date fields rewritten by the full migration.
var DefaultNormalizeTargets = []NormalizeTarget{
	{Collection: entities.CollectionSchedules, Field: "date"},
	{Collection: entities.CollectionWorships, Field: "worship_date"},
}

// NormalizeResult counts documents by outcome.
type NormalizeResult struct {
	Scanned   int
	Updated   int
	Skipped   int
	Unchanged int
}

func (r NormalizeResult) String() string {
	return fmt.Sprintf("%d scanned, %d updated, %d unchanged, %d skipped",
		r.Scanned, r.Updated, r.Unchanged, r.Skipped)
}

func (r *NormalizeResult) add(o NormalizeResult) {
	r.Scanned += o.Scanned
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Unchanged += o.Unchanged
}

// CanonicalDate converts a stored date value to the calendar day it denotes in UTC,
// anchored at 12:00 in loc. A value already at 12:00 in loc keeps its local day. It
// returns ErrNoDate when v is absent.
func CanonicalDate(v any, loc *time.Location) (time.Time, error) {
	dv, err := entities.ParseDateValue(v)
	if err != nil {
		return time.Time{}, err
	}
	if dv.IsZero() {
		return time.Time{}, ErrNoDate
	}
	if t := dv.Time.In(loc); isLocalNoon(t) {
		// Already canonical; keep its local day so reruns leave it untouched.
		return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc), nil
	}
	return dv.AtLocalNoon(loc), nil
}

func isLocalNoon(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 12 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// Normalizer rewrites heterogeneous date fields to canonical instants.
type Normalizer struct {
	cfg *EngineConfig
	log logger.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(cfg *EngineConfig) *Normalizer {
	cfg = cfg.withDefaults()
	return &Normalizer{cfg: cfg, log: cfg.Logger.Module(phaseNormalize)}
}

// Normalize rewrites every target field. With no targets, DefaultNormalizeTargets are used.
// Documents already holding the canonical instant are left untouched.
func (n *Normalizer) Normalize(ctx context.Context, targets ...NormalizeTarget) (NormalizeResult, error) {
	if len(targets) == 0 {
		targets = DefaultNormalizeTargets
	}

	var total NormalizeResult
	for _, target := range targets {
		res, err := n.normalizeTarget(ctx, target)
		total.add(res)
		if err != nil {
			return total, err
		}
	}

	n.cfg.Metrics.RecordDocuments(phaseNormalize, metrics.OutcomeUpdated, total.Updated)
	n.cfg.Metrics.RecordDocuments(phaseNormalize, metrics.OutcomeUnchanged, total.Unchanged)
	n.cfg.Metrics.RecordDocuments(phaseNormalize, metrics.OutcomeSkipped, total.Skipped)
	return total, nil
}

func (n *Normalizer) normalizeTarget(ctx context.Context, target NormalizeTarget) (NormalizeResult, error) {
	var res NormalizeResult
	w := n.cfg.newWriter()

	err := datastore.Scan(ctx, n.cfg.Store, datastore.Query{Collection: target.Collection}, n.cfg.PageSize,
		func(doc datastore.Document) error {
			res.Scanned++
			raw := doc.Data[target.Field]

			canonical, err := CanonicalDate(raw, n.cfg.Location)
			if err != nil {
				res.Skipped++
				n.log.Debug("date not normalizable",
					logger.String("path", doc.Path),
					logger.String("field", target.Field),
					logger.Error(err))
				return nil
			}

			if existing, ok := raw.(time.Time); ok && existing.Equal(canonical) {
				res.Unchanged++
				return nil
			}

			res.Updated++
			return w.Update(ctx, doc.Path, map[string]any{target.Field: canonical})
		})
	if err != nil {
		return res, err
	}
	if err := w.Flush(ctx); err != nil {
		return res, err
	}

	n.log.Info("collection normalized",
		logger.String("collection", target.Collection),
		logger.String("field", target.Field),
		logger.Int("updated", res.Updated),
		logger.Int("unchanged", res.Unchanged),
		logger.Int("skipped", res.Skipped))
	return res, nil
}
