package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/domain"
)

// MachineRepository defines domain-specific operations for machines
type MachineRepository interface {
	Repository[domain.Machine, int64]
	FindByMAC(ctx context.Context, mac string) (domain.Machine, error)
	FindBySwitchID(ctx context.Context, switchID int64) ([]domain.Machine, error)
}

// machineRepositoryImpl implements MachineRepository
type machineRepositoryImpl struct {
	db *sql.DB
}

// NewMachineRepository creates a new machine repository
func NewMachineRepository(db *sql.DB) MachineRepository {
	return &machineRepositoryImpl{db: db}
}

// Save creates or updates a machine. The update timestamp advances on every
// write.
func (r *machineRepositoryImpl) Save(ctx context.Context, machine domain.Machine) (domain.Machine, error) {
	if machine.MAC == "" {
		return domain.Machine{}, fmt.Errorf("machine MAC is required: %w", ErrInvalidEntity)
	}

	if machine.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			"INSERT INTO machines (mac, port, vlan, switch_id) VALUES (?, ?, ?, ?)",
			machine.MAC, machine.Port, machine.VLAN, machine.SwitchID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Machine{}, fmt.Errorf("machine with MAC %s: %w", machine.MAC, ErrDuplicate)
			}
			return domain.Machine{}, fmt.Errorf("failed to create machine: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Machine{}, fmt.Errorf("failed to get machine ID: %w", err)
		}
		machine.ID = id
		return machine, nil
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE machines SET mac = ?, port = ?, vlan = ?, switch_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		machine.MAC, machine.Port, machine.VLAN, machine.SwitchID, machine.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Machine{}, fmt.Errorf("machine with MAC %s: %w", machine.MAC, ErrDuplicate)
		}
		return domain.Machine{}, fmt.Errorf("failed to update machine: %w", err)
	}
	return machine, nil
}

// FindByID retrieves a machine by its ID
func (r *machineRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Machine, error) {
	var m domain.Machine
	err := r.db.QueryRowContext(ctx,
		"SELECT id, mac, port, vlan, switch_id, updated_at FROM machines WHERE id = ?", id).
		Scan(&m.ID, &m.MAC, &m.Port, &m.VLAN, &m.SwitchID, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Machine{}, fmt.Errorf("machine with ID %d: %w", id, ErrNotFound)
		}
		return domain.Machine{}, fmt.Errorf("failed to find machine: %w", err)
	}
	return m, nil
}

// FindAll retrieves all machines
func (r *machineRepositoryImpl) FindAll(ctx context.Context) ([]domain.Machine, error) {
	return r.queryMachines(ctx,
		"SELECT id, mac, port, vlan, switch_id, updated_at FROM machines ORDER BY id ASC")
}

// DeleteByID removes a machine. A cluster host on this machine is removed
// with it by the schema's CASCADE rule.
func (r *machineRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM machines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
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

// ExistsByID checks if a machine exists by its ID
func (r *machineRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM machines WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check machine existence: %w", err)
	}
	return count > 0, nil
}

// FindByMAC retrieves a machine by its unique MAC address
func (r *machineRepositoryImpl) FindByMAC(ctx context.Context, mac string) (domain.Machine, error) {
	var m domain.Machine
	err := r.db.QueryRowContext(ctx,
		"SELECT id, mac, port, vlan, switch_id, updated_at FROM machines WHERE mac = ?", mac).
		Scan(&m.ID, &m.MAC, &m.Port, &m.VLAN, &m.SwitchID, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Machine{}, fmt.Errorf("machine with MAC %s: %w", mac, ErrNotFound)
		}
		return domain.Machine{}, fmt.Errorf("failed to find machine by MAC: %w", err)
	}
	return m, nil
}

// FindBySwitchID retrieves the machines discovered behind one switch
func (r *machineRepositoryImpl) FindBySwitchID(ctx context.Context, switchID int64) ([]domain.Machine, error) {
	return r.queryMachines(ctx,
		"SELECT id, mac, port, vlan, switch_id, updated_at FROM machines WHERE switch_id = ? ORDER BY port ASC",
		switchID)
}

func (r *machineRepositoryImpl) queryMachines(ctx context.Context, query string, args ...any) ([]domain.Machine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var machines []domain.Machine
	for rows.Next() {
		var m domain.Machine
		if err := rows.Scan(&m.ID, &m.MAC, &m.Port, &m.VLAN, &m.SwitchID, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}
