package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

// Dir is the migration directory inside the embedded filesystem
const Dir = "sql"

// goose keeps its configuration in package globals
var mu sync.Mutex

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatalf(format, v...)
}

func setup(logger *zap.Logger) error {
	if logger == nil {
		goose.SetLogger(goose.NopLogger())
	} else {
		goose.SetLogger(gooseLogger{log: logger.Sugar()})
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return nil
}

// Up applies every pending migration
func Up(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	if err := setup(logger); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, Dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// UpTo migrates up to and including version
func UpTo(ctx context.Context, db *sql.DB, version int64, logger *zap.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	if err := setup(logger); err != nil {
		return err
	}
	if err := goose.UpToContext(ctx, db, Dir, version); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration
func Down(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	if err := setup(logger); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, Dir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Status logs the applied state of every migration
func Status(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	if err := setup(logger); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, db, Dir); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}

// Version returns the current schema version
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	if err := setup(nil); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}

// Files lists the embedded migration files
func Files() ([]string, error) {
	entries, err := embedMigrations.ReadDir(Dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
