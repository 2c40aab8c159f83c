package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// ShutdownTimeout bounds how long Stop waits for in-flight scrapes.
const ShutdownTimeout = 5 * time.Second

// Endpoint serves /metrics over HTTP while a command runs.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	log           logger.Logger

	listener net.Listener
	wg       sync.WaitGroup
}

// NewEndpoint creates an Endpoint that will listen on listenAddress.
// Use ":0" to pick a free port; Addr reports the bound address after Start.
func NewEndpoint(listenAddress string, metrics *Metrics, log logger.Logger) *Endpoint {
	return &Endpoint{
		listenAddress: listenAddress,
		metrics:       metrics,
		log:           log.Module("telemetry"),
	}
}

// Start binds the listener and serves in the background until Stop is called.
func (e *Endpoint) Start() error {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return err
	}
	e.listener = ln
	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	e.wg.Go(func() {
		e.log.Info("telemetry endpoint starting", logger.String("address", ln.Addr().String()))
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("telemetry HTTP server error", logger.Error(err))
		}
	})
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (e *Endpoint) Addr() string {
	if e.listener == nil {
		return e.listenAddress
	}
	return e.listener.Addr().String()
}

// Stop shuts the server down gracefully and waits for the serve loop to exit.
func (e *Endpoint) Stop() error {
	if e.server == nil {
		return nil
	}
	e.log.Info("stopping telemetry server")
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := e.server.Shutdown(ctx)
	e.wg.Wait()
	return err
}
