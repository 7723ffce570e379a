package migrations

import (
	"database/sql"
)

// GetPerformanceMigrations returns migrations that add query indices.
func GetPerformanceMigrations() []Migration {
	return []Migration{
		{
			Version: 10,
			Name:    "add_performance_indices",
			Up: func(db *sql.DB) error {
				indices := []string{
					"CREATE INDEX IF NOT EXISTS idx_machines_switch_id ON machines(switch_id)",
					"CREATE INDEX IF NOT EXISTS idx_machines_mac ON machines(mac)",
					"CREATE INDEX IF NOT EXISTS idx_clusters_adapter_id ON clusters(adapter_id)",
					"CREATE INDEX IF NOT EXISTS idx_cluster_hosts_cluster_id ON cluster_hosts(cluster_id)",
					"CREATE INDEX IF NOT EXISTS idx_cluster_hosts_machine_id ON cluster_hosts(machine_id)",
					"CREATE INDEX IF NOT EXISTS idx_log_checkpoints_pathname ON log_checkpoints(pathname)",
				}

				for _, indexSQL := range indices {
					if _, err := db.Exec(indexSQL); err != nil {
						return err
					}
				}

				return nil
			},
			Down: func(db *sql.DB) error {
				indices := []string{
					"DROP INDEX IF EXISTS idx_machines_switch_id",
					"DROP INDEX IF EXISTS idx_machines_mac",
					"DROP INDEX IF EXISTS idx_clusters_adapter_id",
					"DROP INDEX IF EXISTS idx_cluster_hosts_cluster_id",
					"DROP INDEX IF EXISTS idx_cluster_hosts_machine_id",
					"DROP INDEX IF EXISTS idx_log_checkpoints_pathname",
				}

				for _, dropSQL := range indices {
					if _, err := db.Exec(dropSQL); err != nil {
						return err
					}
				}

				return nil
			},
		},
	}
}
