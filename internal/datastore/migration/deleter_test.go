package migration

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

func TestDeleteAll_PagesUntilEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		docs     int
		pageSize int
		pages    int
		queries  int
	}{
		{"empty collection", 0, 500, 0, 1},
		{"single short page", 7, 500, 1, 1},
		{"exact multiple", 1000, 500, 2, 3},
		{"remainder", 1234, 500, 3, 3},
		{"small pages", 25, 10, 3, 3},
		{"page size clamped", 1200, 5000, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, seed, cfg := setupMigrationTest(t)
			seed.Bulk(entities.CollectionSheets, "sheet", tt.docs, func(int) map[string]any {
				return map[string]any{"song_id": "s1"}
			})

			res, err := NewDeleter(cfg).DeleteAll(context.Background(), entities.CollectionSheets, tt.pageSize)
			require.NoError(t, err)

			assert.Equal(t, tt.pages, res.Pages)
			assert.Equal(t, tt.queries, store.QueryCount(entities.CollectionSheets))
			assert.Equal(t, tt.docs, res.Deleted)
			assert.Equal(t, 0, store.Count(entities.CollectionSheets))
			for _, size := range store.CommitSizes() {
				assert.LessOrEqual(t, size, datastore.MaxBatchSize)
			}
		})
	}
}

func TestDeleteAll_RerunIsNoop(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.Bulk(entities.CollectionTags, "t1-스플릿-tag", 3, func(int) map[string]any { return map[string]any{} })

	d := NewDeleter(cfg)
	_, err := d.DeleteAll(context.Background(), entities.CollectionTags, 500)
	require.NoError(t, err)

	commits := len(store.CommitSizes())
	res, err := d.DeleteAll(context.Background(), entities.CollectionTags, 500)
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{}, res)
	assert.Len(t, store.CommitSizes(), commits)
}

func TestDeleteAll_LeavesNestedCollections(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.TenantScoped("t1", entities.CollectionSongs, "s1", map[string]any{"title": "Song"})
	seed.Put(entities.SongChildCollection("t1", "s1", entities.CollectionSheets), "sh1", map[string]any{})
	seed.TenantScoped("t2", entities.CollectionSongs, "s2", map[string]any{"title": "Other"})

	_, err := NewDeleter(cfg).DeleteAll(context.Background(), entities.TenantCollection("t1", entities.CollectionSongs), 500)
	require.NoError(t, err)

	assert.Equal(t, 0, store.Count(entities.TenantCollection("t1", entities.CollectionSongs)))
	assert.Equal(t, 1, store.Count(entities.SongChildCollection("t1", "s1", entities.CollectionSheets)))
	assert.Equal(t, 1, store.Count(entities.TenantCollection("t2", entities.CollectionSongs)))
}

func TestDeleteAll_RejectsDocumentPath(t *testing.T) {
	t.Parallel()
	_, _, cfg := setupMigrationTest(t)

	_, err := NewDeleter(cfg).DeleteAll(context.Background(), "teams/t1", 500)
	require.ErrorIs(t, err, datastore.ErrInvalidPath)
}

func TestDeleteAll_RecordsMetrics(t *testing.T) {
	t.Parallel()
	_, seed, cfg := setupMigrationTest(t)
	registry := prometheus.NewRegistry()
	m, err := metrics.NewMigrationMetrics(registry)
	require.NoError(t, err)
	cfg.Metrics = m

	seed.Bulk(entities.CollectionNotices, "n", 12, func(int) map[string]any { return map[string]any{} })
	_, err = NewDeleter(cfg).DeleteAll(context.Background(), entities.CollectionNotices, 5)
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				values[f.GetName()] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.InDelta(t, 12, values["migration_deleted_documents_total"], 0)
	assert.InDelta(t, 3, values["migration_batch_commits_total"], 0)
	assert.InDelta(t, 3, values["migration_batch_size"], 0)
}
