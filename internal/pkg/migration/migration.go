// Package migration applies the embedded SQL schema with golang-migrate.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shandysiswandi/gofocus/internal/pkg/dburl"
)

// Up applies every pending migration found under dir in fsys. A database
// that is already current is not an error.
func Up(fsys fs.FS, dir, datasource string) error {
	m, err := open(fsys, dir, datasource)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: version: %w", err)
	}
	slog.Info("database schema is up to date", "version", version, "dirty", dirty)

	return nil
}

// Down rolls back steps migrations.
func Down(fsys fs.FS, dir, datasource string, steps int) error {
	if steps <= 0 {
		return nil
	}

	m, err := open(fsys, dir, datasource)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: down: %w", err)
	}
	return nil
}

func open(fsys fs.FS, dir, datasource string) (*migrate.Migrate, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migration: source: %w", err)
	}

	target, err := dburl.MigrateURL(datasource)
	if err != nil {
		return nil, errors.Join(err, src.Close())
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, target)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("migration: open: %w", err), src.Close())
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		slog.Warn("failed to close migrate", "error", err)
	}
}
