// Package db opens the database, applies the schema and seeds sample data.
package db

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diewo77/go-garage/internal/config"
	"github.com/diewo77/go-garage/internal/logger"
	"github.com/diewo77/go-garage/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

//go:embed migrations
var migrationsFS embed.FS

// Tables is the schema every successful migration must leave behind.
var Tables = []string{"estimates", "services", "inventory", "job_cards"}

// Models lists the persisted types in dependency order.
func Models() []any {
	return []any{&models.Estimate{}, &models.Service{}, &models.InventoryItem{}, &models.JobCard{}}
}

// Open connects using cfg. For sqlite the parent directory is created; for
// postgres the connection is retried while the server starts.
func Open(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.GormLogger(log, cfg.Debug), TranslateError: true}
	entry := log.WithField("component", "db")

	var dialector gorm.Dialector
	attempts := 1
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := NormalizeDSN(cfg.DSN)
		if dsn == "" {
			return nil, errors.New("database.dsn is empty, check the environment")
		}
		entry.WithField("dsn", MaskDSN(dsn)).Info("using postgres")
		dialector = postgres.Open(dsn)
		attempts = 10
	default:
		if dir := filepath.Dir(cfg.File()); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		entry.WithField("file", cfg.File()).Info("using sqlite")
		dialector = sqlite.Open(SQLiteDSN(cfg.File()))
	}

	var conn *gorm.DB
	var err error
	for i := 0; i < attempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		entry.WithError(err).Warnf("connection attempt %d/%d failed", i+1, attempts)
		if i+1 < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return conn, nil
}

// Opener returns a function that opens and prepares the database on demand,
// suitable for a lazily reconnecting store.
func Opener(cfg config.DatabaseConfig, log *logrus.Logger) func() (*gorm.DB, error) {
	return func() (*gorm.DB, error) {
		conn, err := Open(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := Migrate(conn, cfg); err != nil {
			return nil, err
		}
		if cfg.Seed {
			if err := Seed(conn); err != nil {
				return nil, err
			}
		}
		return conn, nil
	}
}

// Migrate creates the schema if it does not exist. With cfg.Migrations the
// embedded SQL migrations run through golang-migrate, otherwise AutoMigrate.
func Migrate(conn *gorm.DB, cfg config.DatabaseConfig) error {
	if cfg.Migrations {
		if err := runSQLMigrations(conn, cfg.Driver); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range Models() {
			if err := conn.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range Tables {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// runSQLMigrations applies migrations/<driver> on the already open handle.
func runSQLMigrations(conn *gorm.DB, driver string) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	dir := "migrations/sqlite"
	if driver == config.DriverPostgres {
		dir = "migrations/postgres"
	}
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return err
	}
	var m *migrate.Migrate
	if driver == config.DriverPostgres {
		target, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", target)
		if err != nil {
			return err
		}
	} else {
		target, err := migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", target)
		if err != nil {
			return err
		}
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
