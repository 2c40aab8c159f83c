package migration

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

const phaseRelocate = "relocate"

// RelocateResult counts the documents of one collection by outcome.
type RelocateResult struct {
	Collection string
	Relocated  int
	Skipped    int
	// Children counts sheets and comments copied under relocated songs.
	Children int
}

func (r RelocateResult) String() string {
	s := fmt.Sprintf("%s: %d relocated, %d skipped", r.Collection, r.Relocated, r.Skipped)
	if r.Children > 0 {
		s += fmt.Sprintf(", %d children", r.Children)
	}
	return s
}

// transformFunc renders a legacy document for its tenant-scoped destination.
// It returns the owning tenant fields alongside the output.
type transformFunc func(data map[string]any) (entities.TenantFields, map[string]any, error)

// Relocator copies root-level legacy collections under their tenants.
type Relocator struct {
	cfg      *EngineConfig
	resolver *TenantResolver
	log      logger.Logger
}

// NewRelocator creates a Relocator. A nil resolver gets a fresh one.
func NewRelocator(cfg *EngineConfig, resolver *TenantResolver) *Relocator {
	cfg = cfg.withDefaults()
	if resolver == nil {
		resolver = NewTenantResolver(cfg.Store, cfg.TenantCacheTTL)
	}
	return &Relocator{cfg: cfg, resolver: resolver, log: cfg.Logger.Module(phaseRelocate)}
}

// RelocateAll relocates schedules, worships, notices and songs, in that order.
func (r *Relocator) RelocateAll(ctx context.Context) ([]RelocateResult, error) {
	steps := []func(context.Context) (RelocateResult, error){
		func(ctx context.Context) (RelocateResult, error) {
			return r.RelocateCollection(ctx, entities.CollectionSchedules, copyTransform)
		},
		func(ctx context.Context) (RelocateResult, error) {
			return r.RelocateCollection(ctx, entities.CollectionWorships, copyTransform)
		},
		func(ctx context.Context) (RelocateResult, error) {
			return r.RelocateCollection(ctx, entities.CollectionNotices, r.noticeTransform)
		},
		r.RelocateSongs,
	}

	results := make([]RelocateResult, 0, len(steps))
	for _, step := range steps {
		res, err := step(ctx)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// RelocateCollection copies every document of a root collection to
// teams/{tenant}/{collection}/{id}. Documents without a resolvable tenant are skipped.
// The source documents are left in place.
func (r *Relocator) RelocateCollection(ctx context.Context, collection string, transform transformFunc) (RelocateResult, error) {
	res := RelocateResult{Collection: collection}
	w := r.cfg.newWriter()

	err := datastore.Scan(ctx, r.cfg.Store, datastore.Query{Collection: collection}, r.cfg.PageSize,
		func(doc datastore.Document) error {
			fields, data, err := transform(doc.Data)
			if err != nil {
				res.Skipped++
				r.log.Warn("skipping malformed document", logger.String("path", doc.Path), logger.Error(err))
				return nil
			}
			tenantID, err := r.resolver.Resolve(ctx, fields)
			if err != nil {
				if isSkippable(err) {
					res.Skipped++
					r.log.Warn("skipping document without tenant", logger.String("path", doc.Path), logger.Error(err))
					return nil
				}
				return err
			}

			res.Relocated++
			return w.Set(ctx, datastore.DocPath(entities.TenantCollection(tenantID, collection), doc.ID), data)
		})
	if err != nil {
		return res, err
	}
	if err := w.Flush(ctx); err != nil {
		return res, err
	}

	r.record(res)
	r.log.Info("collection relocated",
		logger.String("collection", collection),
		logger.Int("relocated", res.Relocated),
		logger.Int("skipped", res.Skipped))
	return res, nil
}

// songChildren holds the prefetched child records of songs, grouped by song id.
type songChildren struct {
	sheets   map[string][]datastore.Document
	comments map[string][]datastore.Document
}

// RelocateSongs moves every song under its tenant together with its sheets and comments.
// Sheets and comments are fetched once up front and grouped by song id. For each song the
// children are copied first; the song itself is then moved in a transaction, so a song
// still at its legacy path always has its children re-copied on the next run.
func (r *Relocator) RelocateSongs(ctx context.Context) (RelocateResult, error) {
	res := RelocateResult{Collection: entities.CollectionSongs}

	children, err := r.prefetchSongChildren(ctx)
	if err != nil {
		return res, err
	}

	err = datastore.Scan(ctx, r.cfg.Store, datastore.Query{Collection: entities.CollectionSongs}, r.cfg.PageSize,
		func(doc datastore.Document) error {
			song, err := entities.Decode[entities.TenantScoped](doc.Data)
			if err != nil {
				res.Skipped++
				r.log.Warn("skipping malformed song", logger.String("path", doc.Path), logger.Error(err))
				return nil
			}
			tenantID, err := r.resolver.Resolve(ctx, song.TenantFields)
			if err != nil {
				if isSkippable(err) {
					res.Skipped++
					r.log.Warn("skipping song without tenant", logger.String("path", doc.Path), logger.Error(err))
					return nil
				}
				return err
			}

			copied, err := r.copySongChildren(ctx, tenantID, doc.ID, children)
			if err != nil {
				return err
			}
			moved, err := r.moveSong(ctx, doc.Path, datastore.DocPath(entities.TenantCollection(tenantID, entities.CollectionSongs), doc.ID))
			if err != nil {
				return err
			}
			res.Children += copied
			if moved {
				res.Relocated++
			}
			return nil
		})
	if err != nil {
		return res, err
	}

	r.record(res)
	r.cfg.Metrics.RecordDocuments(phaseRelocate, metrics.OutcomeCreated, res.Children)
	r.log.Info("songs relocated",
		logger.Int("relocated", res.Relocated),
		logger.Int("skipped", res.Skipped),
		logger.Int("children", res.Children))
	return res, nil
}

func (r *Relocator) prefetchSongChildren(ctx context.Context) (*songChildren, error) {
	children := &songChildren{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := datastore.QueryAll(gctx, r.cfg.Store, datastore.Query{Collection: entities.CollectionSheets}, r.cfg.PageSize)
		if err != nil {
			return err
		}
		children.sheets = r.groupBySong(docs)
		return nil
	})
	g.Go(func() error {
		docs, err := datastore.QueryAll(gctx, r.cfg.Store, datastore.Query{Collection: entities.CollectionSongComments}, r.cfg.PageSize)
		if err != nil {
			return err
		}
		children.comments = r.groupBySong(docs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.New(err).
			Component(componentMigration).
			Category(errors.CategoryDatabase).
			Context("operation", "prefetch_song_children").
			Build()
	}
	return children, nil
}

func (r *Relocator) groupBySong(docs []datastore.Document) map[string][]datastore.Document {
	grouped := make(map[string][]datastore.Document)
	for _, doc := range docs {
		songID, _ := doc.Data["song_id"].(string)
		songID = strings.TrimSpace(songID)
		if songID == "" || strings.Contains(songID, "/") {
			r.log.Debug("orphan song child", logger.String("path", doc.Path))
			continue
		}
		grouped[songID] = append(grouped[songID], doc)
	}
	return grouped
}

func (r *Relocator) copySongChildren(ctx context.Context, tenantID, songID string, children *songChildren) (int, error) {
	w := r.cfg.newWriter()
	copied := 0

	for _, doc := range children.sheets[songID] {
		sheet, err := entities.Decode[entities.LegacySheet](doc.Data)
		if err != nil {
			r.log.Warn("skipping malformed sheet", logger.String("path", doc.Path), logger.Error(err))
			continue
		}
		dest := datastore.DocPath(entities.SongChildCollection(tenantID, songID, entities.CollectionSheets), doc.ID)
		if err := w.Set(ctx, dest, TransformSheet(sheet)); err != nil {
			return copied, err
		}
		copied++
	}
	for _, doc := range children.comments[songID] {
		dest := datastore.DocPath(entities.SongChildCollection(tenantID, songID, entities.CollectionComments), doc.ID)
		if err := w.Set(ctx, dest, doc.Data); err != nil {
			return copied, err
		}
		copied++
	}

	return copied, w.Flush(ctx)
}

// moveSong copies src to dest and deletes src in one transaction. It reports false when
// src no longer exists.
func (r *Relocator) moveSong(ctx context.Context, src, dest string) (bool, error) {
	moved := false
	err := r.cfg.Store.RunTransaction(ctx, func(ctx context.Context, tx datastore.Tx) error {
		moved = false
		doc, err := tx.Get(ctx, src)
		if err != nil {
			if errors.Is(err, datastore.ErrNotFound) {
				return nil
			}
			return err
		}
		tx.Set(dest, doc.Data)
		tx.Delete(src)
		moved = true
		return nil
	})
	if err != nil {
		return false, errors.New(err).
			Component(componentMigration).
			Category(errors.CategoryDatabase).
			Context("operation", "move_song").
			Context("path", src).
			Build()
	}
	return moved, nil
}

func (r *Relocator) noticeTransform(data map[string]any) (entities.TenantFields, map[string]any, error) {
	notice, err := entities.Decode[entities.LegacyNotice](data)
	if err != nil {
		return entities.TenantFields{}, nil, err
	}
	return notice.TenantFields, TransformNotice(notice, r.cfg.Now()), nil
}

func (r *Relocator) record(res RelocateResult) {
	r.cfg.Metrics.RecordDocuments(phaseRelocate, metrics.OutcomeMoved, res.Relocated)
	r.cfg.Metrics.RecordDocuments(phaseRelocate, metrics.OutcomeSkipped, res.Skipped)
}

// copyTransform relocates a document unchanged.
func copyTransform(data map[string]any) (entities.TenantFields, map[string]any, error) {
	scoped, err := entities.Decode[entities.TenantScoped](data)
	if err != nil {
		return entities.TenantFields{}, nil, err
	}
	return scoped.TenantFields, data, nil
}
