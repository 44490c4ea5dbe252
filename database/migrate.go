package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

func dialect(engine string) (string, error) {
	switch engine {
	case EngineMySQL:
		return "mysql", nil
	case EngineSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unknown datastore engine type: %s", engine)
	}
}

// Migrate brings the schema to target, or to the latest version when target is 0.
func Migrate(ctx context.Context, db *sql.DB, engine string, target int64) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	d, err := dialect(engine)
	if err != nil {
		return err
	}

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(d); err != nil {
		return fmt.Errorf("failed to set %s dialect: %w", engine, err)
	}

	dir := "migrations/" + engine

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get %s db version: %w", engine, err)
	}
	slog.Info("running migrations", "engine", engine, "current_version", current, "target_version", target)

	switch {
	case target == 0:
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", engine, err)
		}
	case target < current:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("failed to run %s migrations down to %d: %w", engine, target, err)
		}
	case target > current:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("failed to run %s migrations up to %d: %w", engine, target, err)
		}
	default:
		slog.Info("migrations up to date", "engine", engine)
		return nil
	}

	slog.Info("migration done", "engine", engine)
	return nil
}

// Version reports the applied schema version.
func Version(ctx context.Context, db *sql.DB, engine string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	d, err := dialect(engine)
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(d); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
