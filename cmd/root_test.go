package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongshn220/wooriworship-sub001/internal/app"
)

const fixturesYAML = `
documents:
  - path: teams/t1
    data:
      name: Grace
      users: [u1]
      admins: [u1]
      service_tags: [Sunday]
  - path: schedules/s1
    data: {team_id: t1, title: Sunrise, date: "2024-03-10", tags: [sunday]}
  - path: worships/w1
    data: {team_id: t1, title: Morning, worship_date: "2024-03-10", tags: [sunday]}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	fixtures := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(fixtures, []byte(fixturesYAML), 0o600))

	ctx := app.NewContext()
	root := RootCommand(ctx)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--backend", "memory", "--fixtures", fixtures}, args...))

	err := root.Execute()
	require.NoError(t, ctx.Close())
	return out.String(), err
}

func TestMigrateRun_PrintsProgress(t *testing.T) {
	out, err := execute(t, "migrate", "run")
	require.NoError(t, err)
	assert.Contains(t, out, "▶ normalize")
	assert.Contains(t, out, "✔")
	assert.NotContains(t, out, "✖")
}

func TestMigrateServices_RequiresTenant(t *testing.T) {
	_, err := execute(t, "migrate", "services")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant")
}

func TestMigrateServiceTags(t *testing.T) {
	out, err := execute(t, "migrate", "service-tags", "--tenant", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ t1:")
}

func TestCleanup_RequiresConfirmation(t *testing.T) {
	_, err := execute(t, "cleanup", "legacy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestCleanupLegacy(t *testing.T) {
	out, err := execute(t, "cleanup", "legacy", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "delete schedules")
}

func TestSeed(t *testing.T) {
	extra := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(extra, []byte("documents:\n  - path: songs/x\n    data: {title: Amazing Grace}\n"), 0o600))

	out, err := execute(t, "seed", "--file", extra)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 documents")
}

func TestVersion_SkipsInitialization(t *testing.T) {
	ctx := app.NewContext()
	root := RootCommand(ctx)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "built")
	assert.Nil(t, ctx.Runtime)
}
