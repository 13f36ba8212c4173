// Package migrations накатывает схему сервиса (users, templates, projects, history)
// из SQL-файлов каталога migrations.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const fileScheme = "file://"

// Run доводит схему до последней версии и возвращает её номер.
// Если новых файлов нет, схема не меняется и ошибки нет.
func Run(db *sql.DB, dir string, log *slog.Logger) (uint, error) {
	const op = "migrations.Run"

	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL(dir), "pgx_v5", driver)
	if err != nil {
		return 0, fmt.Errorf("%s: open %s: %w", op, dir, err)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug("schema is up to date", slog.String("op", op))
	case err != nil:
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("%s: read schema version: %w", op, err)
	}
	if dirty {
		return version, fmt.Errorf("%s: schema version %d is dirty", op, version)
	}
	log.Info("schema migrated", slog.String("op", op), slog.Uint64("version", uint64(version)))
	return version, nil
}

func sourceURL(dir string) string {
	if strings.HasPrefix(dir, fileScheme) {
		return dir
	}
	return fileScheme + dir
}
