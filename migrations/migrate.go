// Package migrations embeds the schema of both databases: the node's local
// SQLite store and the document server's PostgreSQL store.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed local/*.sql
var localMigrations embed.FS

//go:embed remote/*.sql
var remoteMigrations embed.FS

// goose keeps its base FS and dialect in package globals.
var mu sync.Mutex

// ErrNilDB is returned when a migration is requested on a nil handle.
var ErrNilDB = errors.New("db is nil")

// MigrateLocal brings the node's SQLite database up to date.
func MigrateLocal(db *sql.DB) error {
	return migrate(db, localMigrations, goose.DialectSQLite3, "local")
}

// MigrateRemote brings the document server's PostgreSQL database up to date.
func MigrateRemote(db *sql.DB) error {
	return migrate(db, remoteMigrations, goose.DialectPostgres, "remote")
}

func migrate(db *sql.DB, fsys fs.FS, dialect goose.Dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", ErrNilDB)
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// LocalSchemaVersion reports the newest migration embedded for the node store.
func LocalSchemaVersion() int64 {
	return latestVersion(localMigrations, "local")
}

// RemoteSchemaVersion reports the newest migration embedded for the document server.
func RemoteSchemaVersion() int64 {
	return latestVersion(remoteMigrations, "remote")
}

func latestVersion(fsys fs.FS, dir string) int64 {
	names, err := fs.Glob(fsys, dir+"/*.sql")
	if err != nil {
		return 0
	}

	var latest int64
	for _, name := range names {
		v, err := goose.NumericComponent(name)
		if err != nil {
			continue
		}
		latest = max(latest, v)
	}
	return latest
}
