package migration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/memstore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration/testutil"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
)

func TestRelocateCollection_CopiesUnderTenant(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.Tenant("t1", nil, nil)

	seed.Put(entities.CollectionSchedules, "s1", testutil.NewScheduleBuilder("t1", "2024-03-10").Build()).
		Put(entities.CollectionSchedules, "s2", map[string]any{"teamId": "t1", "title": "alias"}).
		Put(entities.CollectionSchedules, "s3", map[string]any{"title": "orphan"}).
		Put(entities.CollectionSchedules, "s4", map[string]any{"team_id": "ghost"})

	res, err := NewRelocator(cfg, nil).RelocateCollection(context.Background(), entities.CollectionSchedules, copyTransform)
	require.NoError(t, err)

	assert.Equal(t, RelocateResult{Collection: entities.CollectionSchedules, Relocated: 2, Skipped: 2}, res)
	assert.Equal(t, "Sunday Service", store.Data("teams/t1/schedules/s1")["title"])
	assert.Equal(t, "alias", store.Data("teams/t1/schedules/s2")["title"])
	assert.Nil(t, store.Data("teams/ghost/schedules/s4"))
	assert.Equal(t, 4, store.Count(entities.CollectionSchedules), "sources stay in place")
}

func TestRelocateCollection_TransformsNotices(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.Tenant("t1", nil, nil).
		Put(entities.CollectionNotices, "n1", testutil.LegacyNotice("t1", "Legacy Title", "Legacy Content", "2024-01-01"))

	r := NewRelocator(cfg, nil)
	res, err := r.RelocateCollection(context.Background(), entities.CollectionNotices, r.noticeTransform)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Relocated)

	got := store.Data("teams/t1/notices/n1")
	assert.Equal(t, "Legacy Title", got["title"])
	assert.Equal(t, "Legacy Content", got["body"])
	assert.NotContains(t, got, "subject")
}

func TestRelocateCollection_RerunOverwritesByID(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.Tenant("t1", nil, nil).
		Put(entities.CollectionWorships, "w1", testutil.NewWorshipBuilder("t1", "2024-03-10").WithTitle("First").Build())

	r := NewRelocator(cfg, nil)
	_, err := r.RelocateCollection(context.Background(), entities.CollectionWorships, copyTransform)
	require.NoError(t, err)

	seed.Put(entities.CollectionWorships, "w1", testutil.NewWorshipBuilder("t1", "2024-03-10").WithTitle("Second").Build())
	_, err = r.RelocateCollection(context.Background(), entities.CollectionWorships, copyTransform)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Count(entities.TenantCollection("t1", entities.CollectionWorships)))
	assert.Equal(t, "Second", store.Data("teams/t1/worships/w1")["title"])
}

func seedSongLibrary(seed *testutil.Seeder, songs int) {
	seed.Tenant("t1", nil, nil)
	for i := range songs {
		songID := fmt.Sprintf("song%03d", i)
		seed.Put(entities.CollectionSongs, songID, testutil.Song("t1", songID))
		seed.Put(entities.CollectionSheets, songID+"-a", testutil.Sheet("t1", songID, "https://cdn/"+songID+"-a.png"))
		seed.Put(entities.CollectionSheets, songID+"-b", testutil.Sheet("t1", songID, "https://cdn/"+songID+"-b.png"))
		seed.Put(entities.CollectionSongComments, songID+"-c", testutil.Comment("t1", songID, "nice"))
	}
}

func TestRelocateSongs_MovesSongsWithChildren(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seedSongLibrary(seed, 3)
	seed.Put(entities.CollectionSongs, "lost", testutil.Song("ghost", "lost")).
		Put(entities.CollectionSheets, "orphan", map[string]any{"url": "https://cdn/x.png"})

	res, err := NewRelocator(cfg, nil).RelocateSongs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Relocated)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 9, res.Children)

	assert.Equal(t, 3, store.Count("teams/t1/songs"))
	assert.Equal(t, 1, store.Count(entities.CollectionSongs), "only the unresolvable song stays")
	assert.NotNil(t, store.Data("songs/lost"))

	sheet := store.Data("teams/t1/songs/song001/sheets/song001-b")
	require.NotNil(t, sheet)
	assert.Equal(t, []string{"https://cdn/song001-b.png"}, sheet["urls"])
	assert.NotContains(t, sheet, "url")
	assert.Equal(t, "nice", store.Data("teams/t1/songs/song002/comments/song002-c")["text"])

	assert.Equal(t, 2, store.Count(entities.SongChildCollection("t1", "song000", entities.CollectionSheets)))
	assert.Equal(t, 1, store.Count(entities.SongChildCollection("t1", "song000", entities.CollectionComments)))
}

func TestRelocateSongs_PrefetchIsIndependentOfSongCount(t *testing.T) {
	t.Parallel()

	for _, songs := range []int{2, 40} {
		t.Run(fmt.Sprintf("%d songs", songs), func(t *testing.T) {
			t.Parallel()
			store, seed, cfg := setupMigrationTest(t)
			seedSongLibrary(seed, songs)

			_, err := NewRelocator(cfg, nil).RelocateSongs(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 1, store.QueryCount(entities.CollectionSheets))
			assert.Equal(t, 1, store.QueryCount(entities.CollectionSongComments))
		})
	}
}

func TestRelocateSongs_ChildrenChunkedAtCeiling(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.Tenant("t1", nil, nil).
		Put(entities.CollectionSongs, "big", testutil.Song("t1", "big")).
		Bulk(entities.CollectionSheets, "sheet", 1203, func(i int) map[string]any {
			return testutil.Sheet("t1", "big", fmt.Sprintf("https://cdn/%d.png", i))
		})

	res, err := NewRelocator(cfg, nil).RelocateSongs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1203, res.Children)
	assert.Equal(t, []int{500, 500, 203}, store.CommitSizes())
	assert.Equal(t, 1203, store.Count(entities.SongChildCollection("t1", "big", entities.CollectionSheets)))
}

func TestRelocateSongs_ChildCopyFailureLeavesSongInPlace(t *testing.T) {
	t.Parallel()
	copyErr := errors.NewStd("write quota exceeded")
	store, seed, cfg := setupMigrationTest(t, memstore.WithCommitHook(func([]datastore.Mutation) error {
		return copyErr
	}))
	seedSongLibrary(seed, 1)

	_, err := NewRelocator(cfg, nil).RelocateSongs(context.Background())
	require.ErrorIs(t, err, copyErr)

	assert.NotNil(t, store.Data("songs/song000"))
	assert.Equal(t, 0, store.Count("teams/t1/songs"))
}

func TestRelocateAll_Order(t *testing.T) {
	t.Parallel()
	_, seed, cfg := setupMigrationTest(t)
	seedSongLibrary(seed, 1)

	results, err := NewRelocator(cfg, nil).RelocateAll(context.Background())
	require.NoError(t, err)

	var collections []string
	for _, res := range results {
		collections = append(collections, res.Collection)
	}
	assert.Equal(t, []string{"schedules", "worships", "notices", "songs"}, collections)
}
