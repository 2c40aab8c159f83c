// Package app holds the process-wide state shared by the CLI commands: settings,
// logging, telemetry and the store factory.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/viper"

	"github.com/yongshn220/wooriworship-sub001/internal/buildinfo"
	"github.com/yongshn220/wooriworship-sub001/internal/conf"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/firestore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/memstore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/fixtures"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability"
)

const sentryFlushTimeout = 2 * time.Second

// Context is shared by every command. Settings and Runtime are populated by the
// root command before a subcommand runs.
type Context struct {
	Viper        *viper.Viper
	ConfigFile   string
	FixturesFile string // applied to the store right after it is opened

	Settings *conf.Settings
	Runtime  *Runtime
}

// NewContext returns a Context backed by a fresh viper instance.
func NewContext() *Context {
	return &Context{Viper: viper.New()}
}

// Initialize loads settings and builds the runtime. It is safe to call once per process.
func (c *Context) Initialize() error {
	settings, err := conf.Load(c.Viper, c.ConfigFile)
	if err != nil {
		return err
	}
	rt, err := NewRuntime(settings)
	if err != nil {
		return err
	}
	c.Settings = settings
	c.Runtime = rt
	return nil
}

// Close releases the runtime if one was built.
func (c *Context) Close() error {
	if c.Runtime == nil {
		return nil
	}
	return c.Runtime.Close()
}

// Runtime owns the logger, metrics and telemetry for one CLI invocation.
type Runtime struct {
	Settings *conf.Settings
	Log      logger.Logger
	Metrics  *observability.Metrics

	central  *logger.CentralLogger
	endpoint *observability.Endpoint
	sentry   bool
}

// NewRuntime builds logging, metrics and error reporting from settings.
func NewRuntime(settings *conf.Settings) (*Runtime, error) {
	level := settings.Logging.Level
	if settings.Debug {
		level = string(logger.LogLevelDebug)
	}
	central, err := logger.NewCentralLogger(&logger.LoggingConfig{
		Level:    level,
		Timezone: settings.Migration.Timezone,
		File:     settings.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	m, err := observability.NewMetrics()
	if err != nil {
		_ = central.Close()
		return nil, err
	}

	rt := &Runtime{
		Settings: settings,
		Log:      central.Module("cli"),
		Metrics:  m,
		central:  central,
	}

	if listen := settings.Telemetry.Listen; listen != "" {
		rt.endpoint = observability.NewEndpoint(listen, m, central.Module(""))
		if err := rt.endpoint.Start(); err != nil {
			_ = central.Close()
			return nil, errors.New(err).
				Component("app").
				Category(errors.CategoryNetwork).
				Context("listen", listen).
				Build()
		}
	}

	if dsn := settings.Telemetry.Sentry.DSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			Environment:      settings.Telemetry.Sentry.Environment,
			Release:          buildinfo.Current().Version,
			AttachStacktrace: true,
		}); err != nil {
			rt.Log.Warn("sentry disabled", logger.Error(err))
		} else {
			rt.sentry = true
			errors.SetTelemetryReporter(errors.NewSentryReporter(true))
		}
	}

	return rt, nil
}

// OpenStore opens the configured backend, instruments it and applies the fixtures
// file when one is set.
func (rt *Runtime) OpenStore(ctx context.Context, fixturesFile string) (datastore.Store, error) {
	store, err := rt.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	backend := rt.Settings.Store.Backend
	instrumented := datastore.Instrument(store, backend, rt.Metrics.Datastore)

	if fixturesFile != "" {
		f, err := fixtures.LoadFile(fixturesFile)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if _, err := f.Apply(ctx, instrumented, rt.Settings.Migration.BatchSize, rt.central.Module("fixtures")); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	rt.Log.Debug("store opened", logger.String("backend", backend))
	return instrumented, nil
}

func (rt *Runtime) openBackend(ctx context.Context) (datastore.Store, error) {
	s := rt.Settings.Store
	storeLog := rt.central.Module("datastore")

	switch s.Backend {
	case conf.BackendMemory:
		return memstore.New(memstore.WithLogger(storeLog)), nil
	case conf.BackendSQLite:
		return datastore.OpenSQLite(datastore.SQLiteConfig{Path: s.SQLite.Path}, storeLog)
	case conf.BackendMySQL:
		return datastore.OpenMySQL(datastore.MySQLConfig{
			Host:     s.MySQL.Host,
			Port:     s.MySQL.Port,
			Username: s.MySQL.Username,
			Password: s.MySQL.Password,
			Database: s.MySQL.Database,
		}, storeLog)
	case conf.BackendFirestore:
		return firestore.Open(ctx, firestore.Config{
			ProjectID:       s.Firestore.ProjectID,
			CredentialsFile: s.Firestore.CredentialsFile,
		}, storeLog)
	default:
		return nil, errors.Newf("unknown store backend %q", s.Backend).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// NewEngine builds a migration engine over store using the migration settings.
func (rt *Runtime) NewEngine(store datastore.Store) (*migration.Engine, error) {
	m := rt.Settings.Migration
	loc, err := m.Location()
	if err != nil {
		return nil, err
	}
	return migration.NewEngine(&migration.EngineConfig{
		Store:          store,
		Logger:         rt.central.Module(""),
		Metrics:        rt.Metrics.Migration,
		BatchSize:      m.BatchSize,
		PageSize:       m.PageSize,
		Location:       loc,
		TenantCacheTTL: m.TenantCacheTTL,
	}), nil
}

// Close stops the metrics endpoint, writes the metrics textfile, flushes telemetry
// and closes the log outputs.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.endpoint != nil {
		if err := rt.endpoint.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if path := rt.Settings.Telemetry.MetricsFile; path != "" {
		if err := rt.Metrics.WriteTextfile(path); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.sentry {
		sentry.Flush(sentryFlushTimeout)
	}
	if err := rt.central.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WithEngine opens the store, builds an engine over it and runs fn. The store is
// closed when fn returns.
func (c *Context) WithEngine(ctx context.Context, fn func(ctx context.Context, engine *migration.Engine) error) (err error) {
	if c.Runtime == nil {
		return errors.Newf("runtime is not initialized").
			Component("app").
			Category(errors.CategoryState).
			Build()
	}
	store, err := c.Runtime.OpenStore(ctx, c.FixturesFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	engine, err := c.Runtime.NewEngine(store)
	if err != nil {
		return err
	}
	return fn(ctx, engine)
}
