//go:build integration && mysql

// MySQL integration tests for the SQL document store.
// Run with: go test -tags="integration,mysql" -v ./internal/datastore/...
//
// A MySQL container is started through testcontainers, so a local Docker daemon is required.
package datastore

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

func setupMySQLStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("wooriworship_test"),
		tcmysql.WithUsername("ww"),
		tcmysql.WithPassword("ww-test-password"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "failed to start MySQL container")

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	store, err := OpenMySQL(MySQLConfig{
		Host:     host,
		Port:     port.Port(),
		Username: "ww",
		Password: "ww-test-password",
		Database: "wooriworship_test",
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMySQL_DocumentRoundTrip(t *testing.T) {
	store := setupMySQLStore(t)
	ctx := context.Background()

	date := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	b := store.Batch()
	b.Set("teams/t1/worships/w1", map[string]any{"title": "Sunrise", "worship_date": date, "team_id": "t1"})
	b.Set("teams/t1/worships/W2", map[string]any{"title": "Evening", "team_id": "t1"})
	b.Set("teams/t1/worships/a3", map[string]any{"title": "Other", "team_id": "t2"})
	require.NoError(t, b.Commit(ctx))

	doc, err := store.Get(ctx, "teams/t1/worships/w1")
	require.NoError(t, err)
	assert.Equal(t, date, doc.Data["worship_date"])

	all, err := store.Query(ctx, Query{Collection: "teams/t1/worships"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// byte-wise ordering puts upper case first
	assert.Equal(t, []string{"W2", "a3", "w1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	filtered, err := store.Query(ctx, Query{Collection: "teams/t1/worships"}.Where("team_id", "t1"))
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestMySQL_TransactionMove(t *testing.T) {
	store := setupMySQLStore(t)
	ctx := context.Background()

	b := store.Batch()
	b.Set("songs/s1", map[string]any{"title": "Amazing Grace", "team_id": "t1"})
	require.NoError(t, b.Commit(ctx))

	err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		src, err := tx.Get(ctx, "songs/s1")
		if err != nil {
			return err
		}
		tx.Set("teams/t1/songs/s1", src.Data)
		tx.Delete("songs/s1")
		return nil
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, "songs/s1")
	require.ErrorIs(t, err, ErrNotFound)
}
