package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration/testutil"
)

func TestCollectParticipants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  map[string]any
		want []string
	}{
		{
			name: "no nested structures",
			doc:  testutil.NewScheduleBuilder("t1", "2024-03-10").Build(),
			want: []string{},
		},
		{
			name: "roles and item assignments deduplicated",
			doc: testutil.NewScheduleBuilder("t1", "2024-03-10").
				WithWorshipRoles(testutil.Role("vocal", "u2", "u1"), testutil.Role("keys", "u1")).
				WithItems(
					testutil.Item("Prayer", 1, testutil.Role("lead", "u3", "")),
					testutil.Item("Offering", 2),
				).
				Build(),
			want: []string{"u1", "u2", "u3"},
		},
		{
			name: "legacy roles field",
			doc: testutil.NewScheduleBuilder("t1", "2024-03-10").
				WithLegacyRoles(testutil.Role("drums", "u9")).
				Build(),
			want: []string{"u9"},
		},
		{
			name: "items without assignments",
			doc: testutil.NewScheduleBuilder("t1", "2024-03-10").
				WithItems(testutil.Item("Welcome", 1)).
				Build(),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			schedule, err := entities.Decode[entities.LegacySchedule](tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, CollectParticipants(schedule))
		})
	}
}

func TestParticipantIndexer_Index(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)

	seed.Put(entities.CollectionSchedules, "s1", testutil.NewScheduleBuilder("t1", "2024-03-10").
		WithWorshipRoles(testutil.Role("vocal", "u2", "u1")).
		WithField("participants", []any{"stale"}).
		Build()).
		Put(entities.CollectionSchedules, "s2", testutil.NewScheduleBuilder("t1", "2024-03-17").Build()).
		Put(entities.CollectionSchedules, "s3", map[string]any{"worship_roles": "not-a-list"})

	idx := NewParticipantIndexer(cfg)
	res, err := idx.Index(context.Background())
	require.NoError(t, err)

	assert.Equal(t, IndexResult{Scanned: 3, Updated: 2, Skipped: 1}, res)
	assert.Equal(t, []string{"u1", "u2"}, store.Data("schedules/s1")["participants"])
	participants, ok := store.Data("schedules/s2")["participants"]
	require.True(t, ok)
	assert.Empty(t, participants)

	again, err := idx.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated)
	assert.Equal(t, 2, again.Unchanged)
}

func TestParticipantIndexer_IndexTenant(t *testing.T) {
	t.Parallel()
	store, seed, cfg := setupMigrationTest(t)
	seed.TenantScoped("t1", entities.CollectionSchedules, "s1", testutil.NewScheduleBuilder("t1", "2024-03-10").
		WithItems(testutil.Item("Sermon", 1, testutil.Role("preacher", "pastor"))).
		Build())

	res, err := NewParticipantIndexer(cfg).IndexTenant(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{"pastor"}, store.Data("teams/t1/schedules/s1")["participants"])

	_, err = NewParticipantIndexer(cfg).IndexTenant(context.Background(), " ")
	require.ErrorIs(t, err, ErrNoTenant)
}
