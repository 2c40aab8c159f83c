package migration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/memstore"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
)

func TestBatchWriter_NeverExceedsCeiling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limit   int
		count   int
		commits []int
	}{
		{"empty", 500, 0, nil},
		{"partial", 500, 17, []int{17}},
		{"exact ceiling", 500, 500, []int{500}},
		{"spans ceiling", 500, 1234, []int{500, 500, 234}},
		{"limit above ceiling is clamped", 2000, 1001, []int{500, 500, 1}},
		{"configured lower limit", 100, 250, []int{100, 100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, _, cfg := setupMigrationTest(t)
			w := NewBatchWriter(store, tt.limit, nil, cfg.Logger)

			for i := range tt.count {
				require.NoError(t, w.Set(context.Background(), fmt.Sprintf("songs/s%05d", i), map[string]any{"n": i}))
			}
			require.NoError(t, w.Flush(context.Background()))

			assert.Equal(t, tt.commits, store.CommitSizes())
			assert.Equal(t, len(tt.commits), w.Commits())
			assert.Equal(t, tt.count, w.Mutations())
			assert.Equal(t, 0, w.Pending())
			assert.Equal(t, tt.count, store.Count("songs"))
		})
	}
}

func TestBatchWriter_PreservesStagingOrder(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.Put("songs", "s1", map[string]any{"title": "old"})

	w := NewBatchWriter(store, 500, nil, cfg.Logger)
	ctx := context.Background()
	require.NoError(t, w.Delete(ctx, "songs/s1"))
	require.NoError(t, w.Set(ctx, "songs/s1", map[string]any{"title": "new"}))
	require.NoError(t, w.Update(ctx, "songs/s1", map[string]any{"key": "G"}))
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, map[string]any{"title": "new", "key": "G"}, store.Data("songs/s1"))
	assert.Equal(t, []int{3}, store.CommitSizes())
}

func TestBatchWriter_CommitFailurePropagates(t *testing.T) {
	t.Parallel()
	commitErr := errors.NewStd("store unavailable")
	store, _, cfg := setupMigrationTest(t, memstore.WithCommitHook(func([]datastore.Mutation) error {
		return commitErr
	}))

	w := NewBatchWriter(store, 2, nil, cfg.Logger)
	ctx := context.Background()
	require.NoError(t, w.Set(ctx, "songs/a", map[string]any{}))
	err := w.Set(ctx, "songs/b", map[string]any{})

	require.Error(t, err)
	require.ErrorIs(t, err, commitErr)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
	assert.Equal(t, 0, w.Commits())
	assert.Empty(t, store.Paths())
}

func TestBatchWriter_FlushWithoutStagedIsNoop(t *testing.T) {
	t.Parallel()
	store, _, cfg := setupMigrationTest(t)
	w := NewBatchWriter(store, 500, nil, cfg.Logger)

	require.NoError(t, w.Flush(context.Background()))
	require.NoError(t, w.Flush(context.Background()))
	assert.Empty(t, store.CommitSizes())
}
