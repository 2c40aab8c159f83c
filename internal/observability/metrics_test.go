package observability

import (
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently
// without causing race conditions
func TestNewMetricsConcurrency(t *testing.T) {
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for range numGoroutines {
		go func() {
			defer wg.Done()

			m, err := NewMetrics()
			if err != nil {
				t.Errorf("NewMetrics failed: %v", err)
				return
			}
			if m.Registry() == nil || m.Migration == nil || m.Datastore == nil {
				t.Error("metrics not fully initialized")
			}
		}()
	}

	wg.Wait()
}

func TestEndpoint_ServesMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Migration.RecordPhase("normalize", "success", time.Second)

	e := NewEndpoint("127.0.0.1:0", m, logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC))
	require.NoError(t, e.Start())
	defer func() { assert.NoError(t, e.Stop()) }()

	resp, err := http.Get("http://" + e.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `migration_phase_runs_total{phase="normalize",status="success"} 1`)
}

func TestEndpoint_StopBeforeStart(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	e := NewEndpoint(":0", m, logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC))
	assert.NoError(t, e.Stop())
	assert.Equal(t, ":0", e.Addr())
}

func TestWriteTextfile(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Datastore.RecordMutations("memory", 3)

	path := filepath.Join(t.TempDir(), "ww.prom")
	require.NoError(t, m.WriteTextfile(path))
	assert.FileExists(t, path)
}
