// File: /database/database.go
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sushicount-api/config"
	"sushicount-api/logger"
	"sushicount-api/models"
	"sushicount-api/storage"
)

// Initialize opens the store selected by DB_DRIVER.
func Initialize(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Connected to database", "driver", cfg.DBDriver, "database", cfg.DatabaseName)
	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	dsn := cfg.DSN()

	switch cfg.DBDriver {
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Session{},
		&models.Participant{},
		&models.ImageRef{},
		&storage.ImageBlob{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

// addCustomIndexes makes sure the unique user indexes exist on tables created before the
// index tags were added.
func addCustomIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, name := range []string{"ux_users_name", "ux_users_email"} {
		if migrator.HasIndex(&models.User{}, name) {
			continue
		}
		if err := migrator.CreateIndex(&models.User{}, name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}

	if !migrator.HasIndex(&models.Friendship{}, "ux_friendships_pair") {
		if err := migrator.CreateIndex(&models.Friendship{}, "ux_friendships_pair"); err != nil {
			logger.Warn("Could not create friendship pair index", "error", err)
		}
	}

	return nil
}
