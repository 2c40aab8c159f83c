package migration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration/testutil"
)

func TestCanonicalDate_AcceptedShapesAgree(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 10, 12, 0, 0, 0, testZone)
	inputs := map[string]any{
		"date-only string":  "2024-03-10",
		"native instant":    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		"seconds map":       map[string]any{"seconds": int64(1710028800), "nanoseconds": 0},
		"admin seconds":     map[string]any{"_seconds": 1710028800.0, "_nanoseconds": 0.0},
		"epoch seconds":     int64(1710028800),
		"afternoon UTC":     time.Date(2024, 3, 10, 22, 15, 0, 0, time.UTC),
		"already canonical": time.Date(2024, 3, 10, 12, 0, 0, 0, testZone).UTC(),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := CanonicalDate(in, testZone)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestCanonicalDate_FarEastZoneKeepsCanonicalDay(t *testing.T) {
	t.Parallel()

	plus14 := time.FixedZone("UTC+14", 14*60*60)
	want := time.Date(2024, 3, 10, 12, 0, 0, 0, plus14)

	first, err := CanonicalDate("2024-03-10", plus14)
	require.NoError(t, err)
	assert.True(t, want.Equal(first), "got %s", first)

	again, err := CanonicalDate(first.UTC(), plus14)
	require.NoError(t, err)
	assert.True(t, want.Equal(again), "got %s", again)
}

func TestCanonicalDate_Absent(t *testing.T) {
	t.Parallel()

	for _, in := range []any{nil, "", "   "} {
		_, err := CanonicalDate(in, testZone)
		require.ErrorIs(t, err, ErrNoDate)
	}

	_, err := CanonicalDate("next sunday", testZone)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoDate)
}

func TestNormalize_RewritesDateFields(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)

	seed.Put(entities.CollectionSchedules, "s1", testutil.NewScheduleBuilder("t1", "2024-03-10").Build()).
		Put(entities.CollectionSchedules, "s2", testutil.NewScheduleBuilder("t1", map[string]any{"seconds": 1710028800}).Build()).
		Put(entities.CollectionSchedules, "s3", testutil.NewScheduleBuilder("t1", nil).Build()).
		Put(entities.CollectionSchedules, "s4", testutil.NewScheduleBuilder("t1", "garbage").Build()).
		Put(entities.CollectionWorships, "w1", testutil.NewWorshipBuilder("t1", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)).Build())

	res, err := NewNormalizer(cfg).Normalize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, NormalizeResult{Scanned: 5, Updated: 3, Skipped: 2}, res)

	want := time.Date(2024, 3, 10, 12, 0, 0, 0, testZone)
	for _, path := range []string{"schedules/s1", "schedules/s2"} {
		got, ok := store.Data(path)["date"].(time.Time)
		require.True(t, ok, path)
		assert.True(t, want.Equal(got), path)
	}
	got, ok := store.Data("worships/w1")["worship_date"].(time.Time)
	require.True(t, ok)
	assert.True(t, want.Equal(got))

	assert.Nil(t, store.Data("schedules/s3")["date"])
	assert.Equal(t, "garbage", store.Data("schedules/s4")["date"])
	assert.Equal(t, "Sunday Service", store.Data("schedules/s1")["title"])
}

func TestNormalize_RerunIsNoop(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.Bulk(entities.CollectionSchedules, "s", 30, func(int) map[string]any {
		return testutil.NewScheduleBuilder("t1", "2024-12-25").Build()
	})

	n := NewNormalizer(cfg)
	first, err := n.Normalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, first.Updated)
	commits := len(store.CommitSizes())

	second, err := n.Normalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 30, second.Unchanged)
	assert.Len(t, store.CommitSizes(), commits)
}

func TestNormalize_RerunIsNoopInFarEastZone(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	cfg.Location = time.FixedZone("UTC+14", 14*60*60)
	seed.Put(entities.CollectionSchedules, "s1", testutil.NewScheduleBuilder("t1", "2024-03-10").Build())

	n := NewNormalizer(cfg)
	first, err := n.Normalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := n.Normalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 1, second.Unchanged)

	got, ok := store.Data("schedules/s1")["date"].(time.Time)
	require.True(t, ok)
	assert.True(t, time.Date(2024, 3, 10, 12, 0, 0, 0, cfg.Location).Equal(got), "got %s", got)
}

func TestNormalize_CustomTargetAndSmallBatches(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	cfg.BatchSize = 4
	cfg.PageSize = 3
	seed.Bulk(entities.TenantCollection("t1", entities.CollectionSchedules), "s", 10, func(int) map[string]any {
		return map[string]any{"date": "2024-01-07"}
	})

	res, err := NewNormalizer(cfg).Normalize(context.Background(), NormalizeTarget{
		Collection: entities.TenantCollection("t1", entities.CollectionSchedules),
		Field:      "date",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Updated)
	assert.Equal(t, []int{4, 4, 2}, store.CommitSizes())
}
