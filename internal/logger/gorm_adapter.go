package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// GormLoggerAdapter routes gorm's logging into the module tree. Statements are
// logged with the caller's context, so SQL issued during a migration run carries
// that run's trace id. Statements go out at TRACE; enable them with
// module_levels {"datastore.sql": "trace"}.
type GormLoggerAdapter struct {
	logger        Logger
	slowThreshold time.Duration
}

// NewGormLoggerAdapter creates an adapter. Statements slower than slowThreshold are
// logged at WARN; 0 disables the check.
func NewGormLoggerAdapter(logger Logger, slowThreshold time.Duration) *GormLoggerAdapter {
	if logger == nil {
		logger = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &GormLoggerAdapter{logger: logger, slowThreshold: slowThreshold}
}

// LogMode is a no-op; levels come from the central logger configuration.
func (a *GormLoggerAdapter) LogMode(gorm_logger.LogLevel) gorm_logger.Interface {
	return a
}

// Info maps gorm's chatty info output to DEBUG.
func (a *GormLoggerAdapter) Info(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Debug(fmt.Sprintf(msg, data...))
}

func (a *GormLoggerAdapter) Warn(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
}

func (a *GormLoggerAdapter) Error(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
}

// Trace logs one executed statement. A missing row is the normal answer to a Get on an
// absent document path, so gorm.ErrRecordNotFound is not treated as a failure.
func (a *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}

	sql, rows := fc()
	log := a.logger.WithContext(ctx).With(
		String("sql", sql),
		Int64("rows", rows),
		Duration("elapsed", elapsed))

	switch {
	case err != nil:
		log.Warn("sql statement failed", Error(err))
	case a.slowThreshold > 0 && elapsed > a.slowThreshold:
		log.Warn("slow sql statement", Duration("threshold", a.slowThreshold))
	default:
		log.Trace("sql statement")
	}
}
