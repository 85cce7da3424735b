// Package migrations embeds the users schema for each supported dialect and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

// Goose dialect names; each has a directory of the same name.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

//go:embed postgres/*.sql sqlite3/*.sql
var files embed.FS

// goose keeps its base FS and dialect in package globals.
var mu sync.Mutex

// Up applies all pending migrations for dialect.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	fsys, err := fs.Sub(files, dialect)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", dialect, err)
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
