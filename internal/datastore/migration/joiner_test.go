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

var march10 = time.Date(2024, 3, 10, 12, 0, 0, 0, testZone)

func TestJoinKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date time.Time
		tags []string
		want string
	}{
		{"no tags", march10, nil, "2024-03-10"},
		{"blank tags only", march10, []string{"", " "}, "2024-03-10"},
		{"sorted", march10, []string{"youth", "english"}, "2024-03-10_english_youth"},
		{"UTC calendar day", time.Date(2024, 3, 11, 1, 0, 0, 0, testZone), []string{"a"}, "2024-03-10_a"},
		{"duplicate tags", march10, []string{"a", "b", "a"}, "2024-03-10_a_b"},
		{"padded tags", march10, []string{" a", "b "}, "2024-03-10_a_b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, JoinKey(tt.date, tt.tags))
		})
	}

	assert.Equal(t, JoinKey(march10, []string{"b", "a"}), JoinKey(march10, []string{"a", "b", ""}))
}

func TestTitleSourcePriority_ScheduleWins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []source{sourceSchedule, sourceAggregate}, titleSourcePriority)
	assert.True(t, outranks(sourceSchedule, sourceAggregate))
	assert.False(t, outranks(sourceAggregate, sourceSchedule))
}

func TestJoin_SunriseScenario(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)

	seed.TenantScoped("t1", entities.CollectionSchedules, "sch1", testutil.NewScheduleBuilder("t1", march10).
		WithTitle("Sunrise").
		WithTags("b", "a").
		WithWorshipRoles(testutil.Role("vocal", "u1")).
		WithItems(testutil.Item("Call to worship", 1)).
		Build())
	seed.TenantScoped("t1", entities.CollectionWorships, "wor1", testutil.NewWorshipBuilder("t1", march10).
		WithTitle("Aggregate Title").
		WithTags("a", "b").
		WithSongs("song1", "song2").
		WithBoundarySongs("song0", "song9").
		WithDescription("Easter sunrise").
		Build())

	res, err := NewJoiner(cfg).Join(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, JoinResult{Services: 1, Setlists: 1, Bands: 1, Flows: 1}, res)

	services := docsUnder(store, "teams/t1/services")
	require.Len(t, services, 1)
	for id, svc := range services {
		assert.Equal(t, "Sunrise", svc["title"])
		assert.Equal(t, "b", svc["tag_id"])
		assert.Equal(t, "sch1", svc["schedule_id"])
		assert.Equal(t, "wor1", svc["worship_id"])
		assert.Equal(t, fixedNow, svc["created_at"])
		assert.True(t, march10.Equal(svc["date"].(time.Time)))

		setlist := store.Data("teams/t1/service_setlists/" + id)
		require.NotNil(t, setlist)
		assert.Equal(t, id, setlist["service_id"])
		assert.Len(t, setlist["songs"], 2)
		assert.Equal(t, "song0", setlist["beginning_song"].(map[string]any)["id"])
		assert.Equal(t, "Easter sunrise", setlist["description"])

		band := store.Data("teams/t1/service_bands/" + id)
		require.NotNil(t, band)
		assert.Len(t, band["roles"], 1)

		flow := store.Data("teams/t1/service_flows/" + id)
		require.NotNil(t, flow)
		assert.Len(t, flow["items"], 1)
	}
}

func TestJoin_OneSidedEntries(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	march17 := march10.AddDate(0, 0, 7)

	seed.TenantScoped("t1", entities.CollectionSchedules, "sch1", testutil.NewScheduleBuilder("t1", march10).
		WithoutTitle().
		WithLegacyRoles(testutil.Role("drums", "u3")).
		Build())
	seed.TenantScoped("t1", entities.CollectionWorships, "wor1", testutil.NewWorshipBuilder("t1", march17).
		WithTitle("").
		WithTags("", "youth").
		Build())
	seed.TenantScoped("t1", entities.CollectionSchedules, "nodate", map[string]any{"title": "no date"})
	seed.TenantScoped("t1", entities.CollectionWorships, "baddate", map[string]any{"worship_date": "someday"})

	res, err := NewJoiner(cfg).Join(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, JoinResult{Services: 2, Setlists: 1, Bands: 1, SkippedSchedules: 1, SkippedAggregates: 1}, res)

	byTitle := map[string]map[string]any{}
	for _, svc := range docsUnder(store, "teams/t1/services") {
		byTitle[svc["title"].(string)] = svc
	}
	require.Contains(t, byTitle, "Service")
	require.Contains(t, byTitle, "Worship Service")
	assert.Nil(t, byTitle["Service"]["tag_id"])
	assert.Equal(t, "youth", byTitle["Worship Service"]["tag_id"])
	assert.NotContains(t, byTitle["Worship Service"], "schedule_id")
	assert.Equal(t, 0, store.Count("teams/t1/service_flows"))
}

func TestJoin_DuplicateAndPaddedTagsCorrelate(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.TenantScoped("t1", entities.CollectionSchedules, "sch1", testutil.NewScheduleBuilder("t1", march10).
		WithTags(" a", "a", "b").
		Build())
	seed.TenantScoped("t1", entities.CollectionWorships, "wor1", testutil.NewWorshipBuilder("t1", march10).
		WithTags("b", "a").
		WithSongs("song1").
		Build())

	res, err := NewJoiner(cfg).Join(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Services)
	assert.Equal(t, 1, res.Setlists)

	services := docsUnder(store, "teams/t1/services")
	require.Len(t, services, 1)
	for _, svc := range services {
		assert.Equal(t, "a", svc["tag_id"])
		assert.Equal(t, "sch1", svc["schedule_id"])
		assert.Equal(t, "wor1", svc["worship_id"])
	}
}

func TestJoin_DifferentTagsStaySeparate(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.TenantScoped("t1", entities.CollectionSchedules, "am", testutil.NewScheduleBuilder("t1", march10).WithTags("first").Build())
	seed.TenantScoped("t1", entities.CollectionSchedules, "pm", testutil.NewScheduleBuilder("t1", march10).WithTags("second").Build())
	seed.TenantScoped("t1", entities.CollectionWorships, "w", testutil.NewWorshipBuilder("t1", march10).WithTags("second").Build())

	res, err := NewJoiner(cfg).Join(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Services)
	assert.Equal(t, 1, res.Setlists)
	assert.Equal(t, 2, store.Count("teams/t1/services"))
}

func TestRebuild_ReplacesPreviousServices(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.TenantScoped("t1", entities.CollectionWorships, "w", testutil.NewWorshipBuilder("t1", march10).Build())
	seed.TenantScoped("t2", entities.CollectionServices, "keep", map[string]any{"title": "other tenant"})

	j := NewJoiner(cfg)
	_, err := j.Rebuild(context.Background(), "t1")
	require.NoError(t, err)
	first := docsUnder(store, "teams/t1/services")

	_, err = j.Rebuild(context.Background(), "t1")
	require.NoError(t, err)
	second := docsUnder(store, "teams/t1/services")

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	for id := range first {
		assert.NotContains(t, second, id, "services get fresh ids")
	}
	assert.Equal(t, 1, store.Count("teams/t1/service_setlists"))
	assert.Equal(t, 1, store.Count("teams/t2/services"))

	_, err = j.Rebuild(context.Background(), "")
	require.ErrorIs(t, err, ErrNoTenant)
}
