package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// SQLiteConfig configures a SQLite backed document store.
type SQLiteConfig struct {
	Path string
}

// OpenSQLite opens (creating when needed) a SQLite database file as a document store.
func OpenSQLite(cfg SQLiteConfig, log logger.Logger) (*SQLStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL keeps readers unblocked while a batch transaction is open.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", cfg.Path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log.Module("sql"), slowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store, err := NewSQLStore(db, DialectSQLite, log)
	if err != nil {
		return nil, err
	}
	log.Info("sqlite document store opened", logger.String("path", cfg.Path))
	return store, nil
}
