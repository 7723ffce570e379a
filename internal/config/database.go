package config

import (
	"database/sql"
	"fmt"
	"time"
)

// TuneConnectionPool bounds the sqlite connection pool and recycles idle
// connections. Session state the service depends on travels in the DSN and
// is re-applied whenever the pool opens a fresh connection, so recycling is
// safe here.
func TuneConnectionPool(db *sql.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

// ApplyStoragePragmas applies sqlite performance pragmas. Performance tuning
// only: journal_mode persists in the database file, and the per-connection
// ones (synchronous, cache_size, temp_store, mmap_size) cost nothing but
// speed when a pooled connection misses them. Anything correctness depends
// on, foreign_keys in particular, rides the DSN in datastore.New instead so
// every connection picks it up.
func ApplyStoragePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA mmap_size = 268435456",
		"PRAGMA optimize",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}
