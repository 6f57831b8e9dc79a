package postgres

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "postgres" database driver of migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable is the table golang-migrate tracks the schema version in,
// kept apart from the one other plugins of the same database may use.
const MigrationsTable = "icontent_schema_migrations"

func newMigrate(dsn string) (*migrate.Migrate, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid dsn, %w", err)
	}

	q := u.Query()
	q.Set("x-migrations-table", MigrationsTable)
	u.RawQuery = q.Encode()

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations, %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect, %w", err)
	}

	return m, nil
}

func closeMigrate(m *migrate.Migrate, err error) error {
	sourceErr, dbErr := m.Close()

	return errors.Join(err, sourceErr, dbErr)
}

// RunMigrations creates or updates the event store and legacy log tables.
// Run it before using EventStore or LegacyLog on a new database.
func RunMigrations(dsn string) (err error) {
	m, err := newMigrate(dsn)
	if err != nil {
		return fmt.Errorf("postgres.RunMigrations: %w", err)
	}

	defer func() { err = closeMigrate(m, err) }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres.RunMigrations: failed to apply migrations, %w", err)
	}

	return nil
}

// DropMigrations reverts every migration applied by RunMigrations,
// dropping the tables and their data.
func DropMigrations(dsn string) (err error) {
	m, err := newMigrate(dsn)
	if err != nil {
		return fmt.Errorf("postgres.DropMigrations: %w", err)
	}

	defer func() { err = closeMigrate(m, err) }()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres.DropMigrations: failed to revert migrations, %w", err)
	}

	return nil
}
