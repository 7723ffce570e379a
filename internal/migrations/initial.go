package migrations

import (
	"database/sql"
)

// GetInitialMigrations returns the migrations that create the deployment
// tracking schema. The cascade rules here are part of the observable
// contract: deleting a switch keeps its machines (switch_id goes NULL),
// deleting a machine removes its cluster host, deleting a cluster keeps its
// hosts (cluster_id goes NULL), and state rows always die with their owner.
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_inventory_tables",
			Up: func(db *sql.DB) error {
				statements := []string{
					`CREATE TABLE switches (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						ip TEXT NOT NULL UNIQUE,
						vendor TEXT NOT NULL DEFAULT '',
						credential_data TEXT NOT NULL DEFAULT '',
						state TEXT NOT NULL DEFAULT 'not_reached'
					)`,
					`CREATE TABLE machines (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						mac TEXT NOT NULL UNIQUE,
						port INTEGER NOT NULL DEFAULT 0,
						vlan INTEGER NOT NULL DEFAULT 0,
						switch_id INTEGER,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (switch_id) REFERENCES switches(id)
							ON DELETE SET NULL ON UPDATE CASCADE
					)`,
					`CREATE TABLE adapters (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						os TEXT NOT NULL DEFAULT '',
						target_system TEXT NOT NULL DEFAULT ''
					)`,
					`CREATE TABLE roles (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						target_system TEXT NOT NULL DEFAULT '',
						description TEXT NOT NULL DEFAULT ''
					)`,
				}
				for _, stmt := range statements {
					if _, err := db.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(db *sql.DB) error {
				for _, stmt := range []string{
					`DROP TABLE IF EXISTS machines`,
					`DROP TABLE IF EXISTS switches`,
					`DROP TABLE IF EXISTS adapters`,
					`DROP TABLE IF EXISTS roles`,
				} {
					if _, err := db.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: 2,
			Name:    "create_cluster_tables",
			Up: func(db *sql.DB) error {
				statements := []string{
					`CREATE TABLE clusters (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						mutable INTEGER NOT NULL DEFAULT 1,
						adapter_id INTEGER,
						security_data TEXT NOT NULL DEFAULT '',
						networking_data TEXT NOT NULL DEFAULT '',
						partition_data TEXT NOT NULL DEFAULT '',
						raw_data TEXT NOT NULL DEFAULT '',
						FOREIGN KEY (adapter_id) REFERENCES adapters(id)
							ON UPDATE CASCADE
					)`,
					`CREATE TABLE cluster_states (
						cluster_id INTEGER PRIMARY KEY,
						state TEXT NOT NULL DEFAULT 'UNINITIALIZED',
						progress REAL NOT NULL DEFAULT 0.0,
						message TEXT NOT NULL DEFAULT '',
						severity TEXT NOT NULL DEFAULT 'INFO',
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (cluster_id) REFERENCES clusters(id)
							ON DELETE CASCADE ON UPDATE CASCADE
					)`,
					`CREATE TABLE cluster_hosts (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						hostname TEXT NOT NULL UNIQUE,
						mutable INTEGER NOT NULL DEFAULT 1,
						cluster_id INTEGER,
						machine_id INTEGER,
						config_data TEXT NOT NULL DEFAULT '',
						FOREIGN KEY (cluster_id) REFERENCES clusters(id)
							ON DELETE SET NULL ON UPDATE CASCADE,
						FOREIGN KEY (machine_id) REFERENCES machines(id)
							ON DELETE CASCADE ON UPDATE CASCADE
					)`,
					`CREATE TABLE host_states (
						host_id INTEGER PRIMARY KEY,
						state TEXT NOT NULL DEFAULT 'UNINITIALIZED',
						progress REAL NOT NULL DEFAULT 0.0,
						message TEXT NOT NULL DEFAULT '',
						severity TEXT NOT NULL DEFAULT 'INFO',
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (host_id) REFERENCES cluster_hosts(id)
							ON DELETE CASCADE ON UPDATE CASCADE
					)`,
				}
				for _, stmt := range statements {
					if _, err := db.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(db *sql.DB) error {
				for _, stmt := range []string{
					`DROP TABLE IF EXISTS host_states`,
					`DROP TABLE IF EXISTS cluster_hosts`,
					`DROP TABLE IF EXISTS cluster_states`,
					`DROP TABLE IF EXISTS clusters`,
				} {
					if _, err := db.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: 3,
			Name:    "create_log_checkpoints",
			Up: func(db *sql.DB) error {
				_, err := db.Exec(`
					CREATE TABLE log_checkpoints (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						pathname TEXT NOT NULL UNIQUE,
						position INTEGER NOT NULL DEFAULT 0,
						partial_line TEXT NOT NULL DEFAULT '',
						progress REAL NOT NULL DEFAULT 0.0,
						message TEXT NOT NULL DEFAULT '',
						severity TEXT NOT NULL DEFAULT 'INFO',
						line_matcher_name TEXT NOT NULL DEFAULT 'start',
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)
				`)
				return err
			},
			Down: func(db *sql.DB) error {
				_, err := db.Exec(`DROP TABLE IF EXISTS log_checkpoints`)
				return err
			},
		},
	}
}
