package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, collection, id string
	}{
		{"songs/s1", "songs", "s1"},
		{"teams/t1/songs/s1/sheets/sh1", "teams/t1/songs/s1/sheets", "sh1"},
		{"orphan", "", "orphan"},
	}
	for _, tt := range tests {
		collection, id := SplitDocPath(tt.path)
		assert.Equal(t, tt.collection, collection, tt.path)
		assert.Equal(t, tt.id, id, tt.path)
	}
	assert.Equal(t, "teams/t1/songs/s1", DocPath(CollectionPath("teams", "t1", "songs"), "s1"))
}

func TestValidatePaths(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateCollectionPath("teams/t1/services"))
	require.NoError(t, ValidateDocPath("teams/t1"))
	require.ErrorIs(t, ValidateCollectionPath("teams/t1"), ErrInvalidPath)
	require.ErrorIs(t, ValidateDocPath("teams"), ErrInvalidPath)
	require.ErrorIs(t, ValidateDocPath("teams//x/y"), ErrInvalidPath)
}

func TestMergeData_DeepMergesMaps(t *testing.T) {
	t.Parallel()

	dst := map[string]any{
		"name":       "Praise Team",
		"created_by": map[string]any{"id": "u1", "time": "old"},
	}
	src := map[string]any{
		"created_by": map[string]any{"time": "new"},
		"tags":       []string{"a"},
	}

	out := MergeData(dst, src)
	assert.Equal(t, "Praise Team", out["name"])
	assert.Equal(t, map[string]any{"id": "u1", "time": "new"}, out["created_by"])
	assert.Equal(t, []string{"a"}, out["tags"])
	assert.Equal(t, "old", dst["created_by"].(map[string]any)["time"], "input must not be mutated")
}

func TestResolveServerTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	in := map[string]any{
		"created_at": ServerTimestamp,
		"created_by": map[string]any{"time": ServerTimestamp},
		"title":      "Sunday",
	}

	out := ResolveServerTimestamps(in, now)
	assert.Equal(t, now, out["created_at"])
	assert.Equal(t, now, out["created_by"].(map[string]any)["time"])
	assert.True(t, IsServerTimestamp(in["created_at"]), "input keeps the sentinel")
}

func TestValuesEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, ValuesEqual(int64(3), 3))
	assert.True(t, ValuesEqual(3.0, int32(3)))
	assert.False(t, ValuesEqual("3", 3))
	assert.True(t, ValuesEqual("team1", "team1"))
	t1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, ValuesEqual(t1, t1.In(time.FixedZone("KST", 9*3600))))
}

func TestCodec_RoundTripsInstantsAndNumbers(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 10, 3, 0, 0, 123000000, time.UTC)
	body, err := encodeData(map[string]any{
		"date":   when,
		"count":  42,
		"ratio":  0.5,
		"nested": map[string]any{"at": when},
		"list":   []any{when, "x"},
	})
	require.NoError(t, err)

	out, err := decodeData(body)
	require.NoError(t, err)
	assert.Equal(t, when, out["date"])
	assert.Equal(t, int64(42), out["count"])
	assert.InDelta(t, 0.5, out["ratio"], 0)
	assert.Equal(t, when, out["nested"].(map[string]any)["at"])
	assert.Equal(t, []any{when, "x"}, out["list"])
}
