package db

import (
	"fmt"
	"time"

	"infinite-experiment/garrison/internal/config"
	"infinite-experiment/garrison/internal/logging"
	gormModels "infinite-experiment/garrison/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitORM opens the configured database. Unique violations are translated to
// gorm.ErrDuplicatedKey so stores can report conflicts.
func InitORM(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == config.DriverSQLite {
		// sqlite allows a single writer
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	logging.Info("Connected to database via GORM", "driver", cfg.DBDriver)
	return db, nil
}

// Models lists every table owned by the service.
func Models() []interface{} {
	return []interface{}{
		&gormModels.ApiKey{},
		&gormModels.ActivePadSession{},
		&gormModels.PendingVerification{},
		&gormModels.RobloxVerification{},
		&gormModels.UserPermission{},
		&gormModels.TicketRole{},
		&gormModels.ActiveTicket{},
	}
}

// Migrate creates missing tables and indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
