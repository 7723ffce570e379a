package datastore

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/metalfoundry/foundry/internal/migrations"
	_ "modernc.org/sqlite"
)

// Datastore owns the database connection the repositories run against.
// Foreign key enforcement carries the cascade behavior the schema declares
// (SET NULL on switch delete, CASCADE on machine delete, and so on). The
// foreign_keys pragma is per-connection in sqlite, so it travels in the DSN,
// where the driver applies it to every connection the pool opens; a one-off
// Exec would only reach whichever connection happened to serve it.
type Datastore struct {
	DB *sql.DB
}

// New opens the database at the given DSN with foreign keys enforced and
// brings the schema up to date.
func New(dsn string) (*Datastore, error) {
	db, err := sql.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Datastore{DB: db}, nil
}

// withForeignKeys appends the foreign_keys pragma to the DSN unless the
// caller already set one.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Close closes the underlying connection.
func (ds *Datastore) Close() error {
	return ds.DB.Close()
}

// migrate applies all schema and index migrations.
func migrate(db *sql.DB) error {
	migrator := migrations.NewMigrator(db)
	for _, migration := range migrations.GetInitialMigrations() {
		migrator.AddMigration(migration)
	}
	for _, migration := range migrations.GetPerformanceMigrations() {
		migrator.AddMigration(migration)
	}
	if err := migrator.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
