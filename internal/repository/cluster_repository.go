package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/confmap"
	"github.com/metalfoundry/foundry/internal/domain"
)

// ClusterFragment names one of the independently settable cluster
// configuration fragments.
type ClusterFragment string

const (
	FragmentSecurity   ClusterFragment = "security"
	FragmentNetworking ClusterFragment = "networking"
	FragmentPartition  ClusterFragment = "partition"
)

// column maps a fragment to its storage column. Unknown fragments are a
// programming error.
func (f ClusterFragment) column() string {
	switch f {
	case FragmentSecurity:
		return "security_data"
	case FragmentNetworking:
		return "networking_data"
	case FragmentPartition:
		return "partition_data"
	}
	panic(fmt.Sprintf("unknown cluster fragment %q", f))
}

// ClusterRepository defines domain-specific operations for clusters.
// Fragment mutations run as read-modify-write transactions scoped to the
// cluster row, so two concurrent fragment updates never lose each other.
type ClusterRepository interface {
	Repository[domain.Cluster, int64]
	FindByName(ctx context.Context, name string) (domain.Cluster, error)
	MergeFragment(ctx context.Context, id int64, fragment ClusterFragment, values confmap.Map) error
	ReplaceConfig(ctx context.Context, id int64, values confmap.Map) error
	FindState(ctx context.Context, id int64) (domain.ClusterState, error)
	UpdateState(ctx context.Context, state domain.ClusterState) error
}

// clusterRepositoryImpl implements ClusterRepository
type clusterRepositoryImpl struct {
	db *sql.DB
}

// NewClusterRepository creates a new cluster repository
func NewClusterRepository(db *sql.DB) ClusterRepository {
	return &clusterRepositoryImpl{db: db}
}

// Save creates or updates a cluster. Creation also creates the cluster's
// state row, in the same transaction, with UNINITIALIZED defaults; the two
// rows exist 1:1 from then on until the CASCADE rule removes both.
func (r *clusterRepositoryImpl) Save(ctx context.Context, cluster domain.Cluster) (domain.Cluster, error) {
	if cluster.Name == "" {
		return domain.Cluster{}, fmt.Errorf("cluster name is required: %w", ErrInvalidEntity)
	}

	if cluster.ID == 0 {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return domain.Cluster{}, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer rollback(tx, "cluster create")

		result, err := tx.ExecContext(ctx,
			`INSERT INTO clusters (name, mutable, adapter_id, security_data, networking_data, partition_data, raw_data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cluster.Name, cluster.Mutable, cluster.AdapterID,
			cluster.SecurityData, cluster.NetworkingData, cluster.PartitionData, cluster.RawData)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Cluster{}, fmt.Errorf("cluster with name %s: %w", cluster.Name, ErrDuplicate)
			}
			return domain.Cluster{}, fmt.Errorf("failed to create cluster: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Cluster{}, fmt.Errorf("failed to get cluster ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cluster_states (cluster_id) VALUES (?)", id); err != nil {
			return domain.Cluster{}, fmt.Errorf("failed to create cluster state: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return domain.Cluster{}, fmt.Errorf("failed to commit cluster create: %w", err)
		}

		cluster.ID = id
		cluster.State = domain.NewClusterState(id)
		return cluster, nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE clusters SET name = ?, mutable = ?, adapter_id = ?,
		 security_data = ?, networking_data = ?, partition_data = ?, raw_data = ?
		 WHERE id = ?`,
		cluster.Name, cluster.Mutable, cluster.AdapterID,
		cluster.SecurityData, cluster.NetworkingData, cluster.PartitionData, cluster.RawData,
		cluster.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Cluster{}, fmt.Errorf("cluster with name %s: %w", cluster.Name, ErrDuplicate)
		}
		return domain.Cluster{}, fmt.Errorf("failed to update cluster: %w", err)
	}
	return cluster, nil
}

// FindByID retrieves a cluster with its state loaded
func (r *clusterRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Cluster, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName retrieves a cluster by its unique name
func (r *clusterRepositoryImpl) FindByName(ctx context.Context, name string) (domain.Cluster, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *clusterRepositoryImpl) findOne(ctx context.Context, where string, arg any) (domain.Cluster, error) {
	var c domain.Cluster
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, mutable, adapter_id, security_data, networking_data, partition_data, raw_data
		 FROM clusters WHERE `+where, arg).
		Scan(&c.ID, &c.Name, &c.Mutable, &c.AdapterID,
			&c.SecurityData, &c.NetworkingData, &c.PartitionData, &c.RawData)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Cluster{}, fmt.Errorf("cluster %v: %w", arg, ErrNotFound)
		}
		return domain.Cluster{}, fmt.Errorf("failed to find cluster: %w", err)
	}

	state, err := r.FindState(ctx, c.ID)
	if err != nil {
		return domain.Cluster{}, err
	}
	c.State = &state
	c.State.Cluster = &c
	return c, nil
}

// FindAll retrieves all clusters (without states; load those per cluster)
func (r *clusterRepositoryImpl) FindAll(ctx context.Context) ([]domain.Cluster, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, mutable, adapter_id, security_data, networking_data, partition_data, raw_data
		 FROM clusters ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var clusters []domain.Cluster
	for rows.Next() {
		var c domain.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.Mutable, &c.AdapterID,
			&c.SecurityData, &c.NetworkingData, &c.PartitionData, &c.RawData); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// DeleteByID removes a cluster. Its state row dies with it (CASCADE); its
// hosts survive with cluster_id cleared (SET NULL).
func (r *clusterRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM clusters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete cluster: %w", err)
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

// ExistsByID checks if a cluster exists by its ID
func (r *clusterRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clusters WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check cluster existence: %w", err)
	}
	return count > 0, nil
}

// MergeFragment deep-merges values into one named fragment as a single
// read-modify-write transaction. Empty values clear the fragment.
func (r *clusterRepositoryImpl) MergeFragment(ctx context.Context, id int64, fragment ClusterFragment, values confmap.Map) error {
	column := fragment.column()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "fragment merge")

	c := domain.Cluster{ID: id}
	var stored string
	err = tx.QueryRowContext(ctx,
		"SELECT "+column+" FROM clusters WHERE id = ?", id).Scan(&stored)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("cluster with ID %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to read %s fragment: %w", fragment, err)
	}

	switch fragment {
	case FragmentSecurity:
		c.SecurityData = stored
		c.SetSecurity(values)
		stored = c.SecurityData
	case FragmentNetworking:
		c.NetworkingData = stored
		c.SetNetworking(values)
		stored = c.NetworkingData
	case FragmentPartition:
		c.PartitionData = stored
		c.SetPartition(values)
		stored = c.PartitionData
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE clusters SET "+column+" = ? WHERE id = ?", stored, id); err != nil {
		return fmt.Errorf("failed to write %s fragment: %w", fragment, err)
	}
	return tx.Commit()
}

// ReplaceConfig replaces the whole cluster configuration: named sections go
// to their fragments, the full document becomes the raw fragment, and an
// empty document clears everything. One transaction covers all four columns.
func (r *clusterRepositoryImpl) ReplaceConfig(ctx context.Context, id int64, values confmap.Map) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "config replace")

	c := domain.Cluster{ID: id}
	err = tx.QueryRowContext(ctx,
		"SELECT security_data, networking_data, partition_data, raw_data FROM clusters WHERE id = ?", id).
		Scan(&c.SecurityData, &c.NetworkingData, &c.PartitionData, &c.RawData)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("cluster with ID %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	c.SetConfig(values)

	if _, err := tx.ExecContext(ctx,
		`UPDATE clusters SET security_data = ?, networking_data = ?, partition_data = ?, raw_data = ?
		 WHERE id = ?`,
		c.SecurityData, c.NetworkingData, c.PartitionData, c.RawData, id); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return tx.Commit()
}

// FindState retrieves the cluster's installation state
func (r *clusterRepositoryImpl) FindState(ctx context.Context, id int64) (domain.ClusterState, error) {
	var s domain.ClusterState
	err := r.db.QueryRowContext(ctx,
		`SELECT cluster_id, state, progress, message, severity, updated_at
		 FROM cluster_states WHERE cluster_id = ?`, id).
		Scan(&s.ClusterID, &s.State, &s.Progress, &s.Message, &s.Severity, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ClusterState{}, fmt.Errorf("state for cluster %d: %w", id, ErrNotFound)
		}
		return domain.ClusterState{}, fmt.Errorf("failed to find cluster state: %w", err)
	}
	return s, nil
}

// UpdateState writes new progress onto the cluster's state row. The update
// timestamp always advances; no transition legality is checked here, that
// belongs to the orchestration layer.
func (r *clusterRepositoryImpl) UpdateState(ctx context.Context, state domain.ClusterState) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cluster_states SET state = ?, progress = ?, message = ?, severity = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE cluster_id = ?`,
		state.State, state.Progress, state.Message, state.Severity, state.ClusterID)
	if err != nil {
		return fmt.Errorf("failed to update cluster state: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("state for cluster %d: %w", state.ClusterID, ErrNotFound)
	}
	return nil
}

// rollback rolls a transaction back, tolerating the already-committed case.
func rollback(tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Printf("failed to roll back %s: %v", op, err)
	}
}
