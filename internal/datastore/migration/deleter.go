package migration

import (
	"context"
	"fmt"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// DeleteResult summarizes a DeleteAll call.
type DeleteResult struct {
	// Pages counts non-empty pages deleted. It is not the number of queries issued.
	Pages   int
	Deleted int
}

// Deleter empties collections page by page.
type Deleter struct {
	cfg *EngineConfig
	log logger.Logger
}

// NewDeleter creates a Deleter.
func NewDeleter(cfg *EngineConfig) *Deleter {
	cfg = cfg.withDefaults()
	return &Deleter{cfg: cfg, log: cfg.Logger.Module("delete")}
}

// DeleteAll removes every document of collection. Each round fetches the first pageSize
// documents by id and deletes them in a single commit, until a round comes back short.
// pageSize is clamped to 1..datastore.MaxBatchSize; on an empty collection this is a no-op.
// When the collection size is an exact multiple of pageSize, one extra empty query
// confirms exhaustion.
func (d *Deleter) DeleteAll(ctx context.Context, collection string, pageSize int) (DeleteResult, error) {
	var res DeleteResult
	if err := datastore.ValidateCollectionPath(collection); err != nil {
		return res, err
	}
	pageSize = clampBatch(pageSize)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		page, err := d.cfg.Store.Query(ctx, datastore.Query{Collection: collection, Limit: pageSize})
		if err != nil {
			return res, fmt.Errorf("query %s: %w", collection, err)
		}
		if len(page) == 0 {
			break
		}

		w := NewBatchWriter(d.cfg.Store, pageSize, d.cfg.Metrics, d.cfg.Logger)
		for i := range page {
			if err := w.Delete(ctx, page[i].Path); err != nil {
				return res, err
			}
		}
		if err := w.Flush(ctx); err != nil {
			return res, err
		}

		res.Pages++
		res.Deleted += len(page)
		d.cfg.Metrics.RecordDeleted(collection, len(page))

		if len(page) < pageSize {
			break
		}
	}

	d.log.Debug("collection deleted",
		logger.String("collection", collection),
		logger.Int("pages", res.Pages),
		logger.Int("deleted", res.Deleted))
	return res, nil
}
