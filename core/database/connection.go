package database

import (
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/core/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// NewDatabase opens the estate database. For sqlite Name is the file path
// (":memory:" for a shared in-memory database), for postgres the database name.
func NewDatabase(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database %q: %w", driverName(cfg), cfg.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	if driverName(cfg) == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
	}

	logrus.Debugf("[DATABASE] Connected to %s database %s", driverName(cfg), cfg.Name)
	return db, nil
}

func driverName(cfg config.DatabaseConfig) string {
	if cfg.Driver == "" {
		return "sqlite"
	}
	return cfg.Driver
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)), nil
	case "sqlite":
		if cfg.Name == ":memory:" {
			return sqlite.Open("file::memory:?cache=shared&_foreign_keys=on"), nil
		}
		return sqlite.Open(fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", cfg.Name)), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
