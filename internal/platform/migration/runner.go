// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration wraps golang-migrate to bring the users, courses and
// blog_posts schema up to date before the server accepts traffic.
//
// Migrations come from the binary itself unless a directory is configured.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/taibuivan/lms/data/migrations"
)

// RunUp applies all pending UP migrations.
//
// An empty migrationsPath selects the embedded set.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := newMigrator(dsn, migrationsPath)
	if err != nil {
		return err
	}
	defer func() {
		sourceError, dbError := migrator.Close()
		if sourceError != nil {
			logger.Error("migration_source_close_failed", slog.Any("error", sourceError))
		}
		if dbError != nil {
			logger.Error("migration_db_close_failed", slog.Any("error", dbError))
		}
	}()

	migrator.Log = &migrateLogger{logger: logger}

	currentVersion, isDirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}
	if isDirty {
		return fmt.Errorf("migration: database is dirty at version %d", currentVersion)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migration_up_to_date", slog.Uint64("version", uint64(currentVersion)))
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	newVersion, _, _ := migrator.Version()
	logger.Info("migration_applied",
		slog.Uint64("from_version", uint64(currentVersion)),
		slog.Uint64("to_version", uint64(newVersion)),
		slog.String("source", sourceName(migrationsPath)),
	)

	return nil
}

func newMigrator(dsn, migrationsPath string) (*migrate.Migrate, error) {
	if migrationsPath != "" {
		migrator, err := migrate.New("file://"+migrationsPath, ToPgx5DSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("migration: failed to initialize: %w", err)
		}
		return migrator, nil
	}

	embedded, err := EmbeddedSource()
	if err != nil {
		return nil, err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", embedded, ToPgx5DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("migration: failed to initialize: %w", err)
	}
	return migrator, nil
}

// EmbeddedSource opens the migrations compiled into the binary.
func EmbeddedSource() (source.Driver, error) {
	driver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: embedded source: %w", err)
	}
	return driver, nil
}

// Versions lists the migration versions of fsys in ascending order.
func Versions(fsys fs.FS) ([]uint, error) {
	driver, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: open source: %w", err)
	}
	defer driver.Close()

	version, err := driver.First()
	if err != nil {
		return nil, fmt.Errorf("migration: first version: %w", err)
	}

	versions := []uint{version}
	for {
		version, err = driver.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return versions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("migration: next version: %w", err)
		}
		versions = append(versions, version)
	}
}

// ToPgx5DSN rewrites postgres:// and postgresql:// URLs to the pgx5:// scheme
// golang-migrate expects. Other inputs are returned unchanged.
func ToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

func sourceName(migrationsPath string) string {
	if migrationsPath == "" {
		return "embedded"
	}
	return migrationsPath
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger *slog.Logger
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return false
}
