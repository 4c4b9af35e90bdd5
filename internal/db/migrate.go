package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations. Each operation uses its
// own short-lived connection.
type Migrator struct {
	dsn    string
	logger *zap.Logger
}

// NewMigrator returns a Migrator for the database at dsn.
func NewMigrator(dsn string, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{dsn: dsn, logger: logger.Named("migrator")}
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	defer m.close(mg)

	from, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get current version: %w", err)
	}
	m.logger.Info("current migration version", zap.Uint("version", from), zap.Bool("dirty", dirty))

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	to, _, _ := mg.Version()
	m.logger.Info("migration completed", zap.Uint("from_version", from), zap.Uint("to_version", to))
	return nil
}

// Down rolls back one version.
func (m *Migrator) Down() error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	defer m.close(mg)
	if err := mg.Steps(-1); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Version reports the applied version. A database without migrations
// reports version 0.
func (m *Migrator) Version() (uint, bool, error) {
	mg, err := m.newMigrate()
	if err != nil {
		return 0, false, err
	}
	defer m.close(mg)
	v, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Force sets the version without running migrations, to recover from a
// dirty state.
func (m *Migrator) Force(version int) error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	defer m.close(mg)
	if err := mg.Force(version); err != nil {
		return fmt.Errorf("force version %d failed: %w", version, err)
	}
	m.logger.Warn("forced migration version", zap.Int("version", version))
	return nil
}

func (m *Migrator) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	conn, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	driver, err := migratepgx.WithInstance(conn, &migratepgx.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "pgx5", driver)
}

// close releases the source and the driver, which also closes its *sql.DB.
func (m *Migrator) close(mg *migrate.Migrate) {
	srcErr, dbErr := mg.Close()
	if srcErr != nil || dbErr != nil {
		m.logger.Warn("close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}
