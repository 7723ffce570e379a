package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/confmap"
	"github.com/metalfoundry/foundry/internal/domain"
)

// HostRepository defines domain-specific operations for cluster hosts.
// FindByID and FindByHostname load the linked cluster and machine so the
// composed configuration view has its identity and MAC enrichment available.
type HostRepository interface {
	Repository[domain.ClusterHost, int64]
	FindByHostname(ctx context.Context, hostname string) (domain.ClusterHost, error)
	FindByClusterID(ctx context.Context, clusterID int64) ([]domain.ClusterHost, error)
	MergeConfig(ctx context.Context, id int64, values confmap.Map) error
	FindState(ctx context.Context, id int64) (domain.HostState, error)
	UpdateState(ctx context.Context, state domain.HostState) error
}

// hostRepositoryImpl implements HostRepository
type hostRepositoryImpl struct {
	db *sql.DB
}

// NewHostRepository creates a new cluster host repository
func NewHostRepository(db *sql.DB) HostRepository {
	return &hostRepositoryImpl{db: db}
}

// Save creates or updates a host. Creation also creates the host's state
// row with UNINITIALIZED defaults in the same transaction.
func (r *hostRepositoryImpl) Save(ctx context.Context, host domain.ClusterHost) (domain.ClusterHost, error) {
	if host.Hostname == "" {
		return domain.ClusterHost{}, fmt.Errorf("hostname is required: %w", ErrInvalidEntity)
	}

	if host.ID == 0 {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return domain.ClusterHost{}, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer rollback(tx, "host create")

		result, err := tx.ExecContext(ctx,
			`INSERT INTO cluster_hosts (hostname, mutable, cluster_id, machine_id, config_data)
			 VALUES (?, ?, ?, ?, ?)`,
			host.Hostname, host.Mutable, host.ClusterID, host.MachineID, host.ConfigData)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ClusterHost{}, fmt.Errorf("host with hostname %s: %w", host.Hostname, ErrDuplicate)
			}
			return domain.ClusterHost{}, fmt.Errorf("failed to create host: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.ClusterHost{}, fmt.Errorf("failed to get host ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO host_states (host_id) VALUES (?)", id); err != nil {
			return domain.ClusterHost{}, fmt.Errorf("failed to create host state: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return domain.ClusterHost{}, fmt.Errorf("failed to commit host create: %w", err)
		}

		host.ID = id
		host.State = domain.NewHostState(id)
		return host, nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE cluster_hosts SET hostname = ?, mutable = ?, cluster_id = ?, machine_id = ?, config_data = ?
		 WHERE id = ?`,
		host.Hostname, host.Mutable, host.ClusterID, host.MachineID, host.ConfigData, host.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ClusterHost{}, fmt.Errorf("host with hostname %s: %w", host.Hostname, ErrDuplicate)
		}
		return domain.ClusterHost{}, fmt.Errorf("failed to update host: %w", err)
	}
	return host, nil
}

// FindByID retrieves a host with its cluster, machine, and state loaded
func (r *hostRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.ClusterHost, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByHostname retrieves a host by its unique hostname
func (r *hostRepositoryImpl) FindByHostname(ctx context.Context, hostname string) (domain.ClusterHost, error) {
	return r.findOne(ctx, "hostname = ?", hostname)
}

func (r *hostRepositoryImpl) findOne(ctx context.Context, where string, arg any) (domain.ClusterHost, error) {
	var h domain.ClusterHost
	err := r.db.QueryRowContext(ctx,
		`SELECT id, hostname, mutable, cluster_id, machine_id, config_data
		 FROM cluster_hosts WHERE `+where, arg).
		Scan(&h.ID, &h.Hostname, &h.Mutable, &h.ClusterID, &h.MachineID, &h.ConfigData)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ClusterHost{}, fmt.Errorf("host %v: %w", arg, ErrNotFound)
		}
		return domain.ClusterHost{}, fmt.Errorf("failed to find host: %w", err)
	}

	if err := r.loadRefs(ctx, &h); err != nil {
		return domain.ClusterHost{}, err
	}
	return h, nil
}

// loadRefs loads the linked cluster, machine, and state onto the host.
func (r *hostRepositoryImpl) loadRefs(ctx context.Context, h *domain.ClusterHost) error {
	if h.ClusterID != nil {
		var c domain.Cluster
		err := r.db.QueryRowContext(ctx,
			`SELECT id, name, mutable, adapter_id, security_data, networking_data, partition_data, raw_data
			 FROM clusters WHERE id = ?`, *h.ClusterID).
			Scan(&c.ID, &c.Name, &c.Mutable, &c.AdapterID,
				&c.SecurityData, &c.NetworkingData, &c.PartitionData, &c.RawData)
		if err != nil {
			return fmt.Errorf("failed to load cluster for host %s: %w", h.Hostname, err)
		}
		h.Cluster = &c
	}

	if h.MachineID != nil {
		var m domain.Machine
		err := r.db.QueryRowContext(ctx,
			"SELECT id, mac, port, vlan, switch_id, updated_at FROM machines WHERE id = ?", *h.MachineID).
			Scan(&m.ID, &m.MAC, &m.Port, &m.VLAN, &m.SwitchID, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to load machine for host %s: %w", h.Hostname, err)
		}
		h.Machine = &m
	}

	state, err := r.FindState(ctx, h.ID)
	if err != nil {
		return err
	}
	h.State = &state
	h.State.Host = h
	return nil
}

// FindAll retrieves all hosts (bare rows, no linked entities)
func (r *hostRepositoryImpl) FindAll(ctx context.Context) ([]domain.ClusterHost, error) {
	return r.queryHosts(ctx,
		`SELECT id, hostname, mutable, cluster_id, machine_id, config_data
		 FROM cluster_hosts ORDER BY id ASC`)
}

// FindByClusterID retrieves the hosts enrolled in one cluster
func (r *hostRepositoryImpl) FindByClusterID(ctx context.Context, clusterID int64) ([]domain.ClusterHost, error) {
	return r.queryHosts(ctx,
		`SELECT id, hostname, mutable, cluster_id, machine_id, config_data
		 FROM cluster_hosts WHERE cluster_id = ? ORDER BY id ASC`, clusterID)
}

func (r *hostRepositoryImpl) queryHosts(ctx context.Context, query string, args ...any) ([]domain.ClusterHost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var hosts []domain.ClusterHost
	for rows.Next() {
		var h domain.ClusterHost
		if err := rows.Scan(&h.ID, &h.Hostname, &h.Mutable, &h.ClusterID, &h.MachineID, &h.ConfigData); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// DeleteByID removes a host; its state row dies with it.
func (r *hostRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cluster_hosts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete host: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByID checks if a host exists by its ID
func (r *hostRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cluster_hosts WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check host existence: %w", err)
	}
	return count > 0, nil
}

// MergeConfig deep-merges values into the host's config fragment as a
// single read-modify-write transaction scoped to the host row.
func (r *hostRepositoryImpl) MergeConfig(ctx context.Context, id int64, values confmap.Map) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "host config merge")

	var h domain.ClusterHost
	err = tx.QueryRowContext(ctx,
		"SELECT id, hostname, config_data FROM cluster_hosts WHERE id = ?", id).
		Scan(&h.ID, &h.Hostname, &h.ConfigData)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("host with ID %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to read host config: %w", err)
	}

	h.MergeConfig(values)

	if _, err := tx.ExecContext(ctx,
		"UPDATE cluster_hosts SET config_data = ? WHERE id = ?", h.ConfigData, id); err != nil {
		return fmt.Errorf("failed to write host config: %w", err)
	}
	return tx.Commit()
}

// FindState retrieves the host's installation state
func (r *hostRepositoryImpl) FindState(ctx context.Context, id int64) (domain.HostState, error) {
	var s domain.HostState
	err := r.db.QueryRowContext(ctx,
		`SELECT host_id, state, progress, message, severity, updated_at
		 FROM host_states WHERE host_id = ?`, id).
		Scan(&s.HostID, &s.State, &s.Progress, &s.Message, &s.Severity, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.HostState{}, fmt.Errorf("state for host %d: %w", id, ErrNotFound)
		}
		return domain.HostState{}, fmt.Errorf("failed to find host state: %w", err)
	}
	return s, nil
}

// UpdateState writes new progress onto the host's state row, advancing the
// update timestamp. Transition legality is the caller's concern.
func (r *hostRepositoryImpl) UpdateState(ctx context.Context, state domain.HostState) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE host_states SET state = ?, progress = ?, message = ?, severity = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE host_id = ?`,
		state.State, state.Progress, state.Message, state.Severity, state.HostID)
	if err != nil {
		return fmt.Errorf("failed to update host state: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("state for host %d: %w", state.HostID, ErrNotFound)
	}
	return nil
}
