package database

import (
	"fmt"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/config"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the MySQL store configured for the sql driver and migrates it.
func Connect(cfg *config.AppConfig) (*gorm.DB, error) {
	db, err := Open(mysql.New(mysql.Config{
		DSN:               cfg.Database.DSN,
		DefaultStringSize: 191,
	}), resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

// Open opens a gorm connection over any dialector.
func Open(dialector gorm.Dialector, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

// Migrate creates the row table. Sort keys compare byte-wise on MySQL so that
// range reads return rows in the same order as the other stores.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.TableRow{}); err != nil {
		return err
	}

	if db.Dialector.Name() == "mysql" {
		if err := db.Exec("ALTER TABLE `table_rows` MODIFY COLUMN `sk` VARCHAR(191) COLLATE utf8mb4_bin NOT NULL").Error; err != nil {
			return err
		}
		if err := db.Exec("ALTER TABLE `table_rows` MODIFY COLUMN `pk` VARCHAR(191) COLLATE utf8mb4_bin NOT NULL").Error; err != nil {
			return err
		}
	}
	return nil
}
