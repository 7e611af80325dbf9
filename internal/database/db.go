package database

import (
	"fmt"
	"log"
	"time"

	"go-pos-ventas/internal/config"
	"go-pos-ventas/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// Connect opens the configured database, waiting for it to come up, and
// brings the schema up to date.
func Connect(cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if cfg.DBDebug {
		logLevel = logger.Info
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logLevel),
		})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/%d)", i+1, connectAttempts)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s after %d attempts: %w", cfg.DBDriver, connectAttempts, err)
	}
	log.Printf("Connected to %s", cfg.DBDriver)

	if cfg.Migrations && cfg.DBDriver == "postgres" {
		if err := RunMigrations(cfg.DBDSN, "migrations/postgres"); err != nil {
			return nil, fmt.Errorf("sql migrations: %w", err)
		}
		log.Println("SQL migrations applied")
		return db, nil
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Println("Database schema synced")
	return db, nil
}

// Dialector picks the gorm driver for DB_DRIVER.
func Dialector(driver string, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		normalized, err := NormalizeMySQLDSN(dsn)
		if err != nil {
			return nil, err
		}
		return mysql.Open(normalized), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate runs AutoMigrate for every model.
func Migrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}
