package datastore

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// MySQLConfig configures a MySQL backed document store.
type MySQLConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DSN returns the go-sql-driver connection string for cfg.
func (cfg MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// OpenMySQL connects to MySQL and prepares the documents table.
func OpenMySQL(cfg MySQLConfig, log logger.Logger) (*SQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log.Module("sql"), slowQueryThreshold),
	})
	if err != nil {
		log.Error("failed to open MySQL database",
			logger.String("host", cfg.Host),
			logger.String("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Error(err))
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Binary collation keeps document id ordering byte-wise like the hosted store.
	if err := db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin").
		AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	store, err := NewSQLStore(db, DialectMySQL, log)
	if err != nil {
		return nil, err
	}
	log.Info("mysql document store opened",
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database))
	return store, nil
}
