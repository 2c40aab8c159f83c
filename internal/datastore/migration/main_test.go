package migration

import (
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore/memstore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration/testutil"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testZone = time.FixedZone("KST", 9*60*60)
	fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

// setupMigrationTest returns an empty memstore, a seeder for it and a config using them.
func setupMigrationTest(t *testing.T, opts ...memstore.Option) (*memstore.Store, *testutil.Seeder, *EngineConfig) {
	t.Helper()
	opts = append([]memstore.Option{memstore.WithClock(func() time.Time { return fixedNow })}, opts...)
	store := memstore.New(opts...)
	cfg := &EngineConfig{
		Store:    store,
		Logger:   testLogger(),
		Location: testZone,
		Now:      func() time.Time { return fixedNow },
	}
	return store, testutil.NewSeeder(store), cfg
}

// docsUnder returns the stored documents directly inside collection, keyed by id.
func docsUnder(store *memstore.Store, collection string) map[string]map[string]any {
	out := make(map[string]map[string]any)
	prefix := collection + "/"
	for _, path := range store.Paths() {
		id, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		out[id] = store.Data(path)
	}
	return out
}
