package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/confmap"
	"github.com/metalfoundry/foundry/internal/domain"
)

// SwitchRepository defines domain-specific operations for switches
type SwitchRepository interface {
	Repository[domain.Switch, int64]
	FindByIP(ctx context.Context, ip string) (domain.Switch, error)
	// MergeCredential deep-merges values into the stored credential
	// fragment inside a single transaction, so concurrent credential
	// updates on the same switch never lose each other's keys.
	MergeCredential(ctx context.Context, id int64, values confmap.Map) error
}

// switchRepositoryImpl implements SwitchRepository
type switchRepositoryImpl struct {
	db *sql.DB
}

// NewSwitchRepository creates a new switch repository
func NewSwitchRepository(db *sql.DB) SwitchRepository {
	return &switchRepositoryImpl{db: db}
}

// Save creates or updates a switch
func (r *switchRepositoryImpl) Save(ctx context.Context, sw domain.Switch) (domain.Switch, error) {
	if sw.IP == "" {
		return domain.Switch{}, fmt.Errorf("switch IP is required: %w", ErrInvalidEntity)
	}
	if sw.State == "" {
		sw.State = domain.SwitchNotReached
	}

	if sw.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			"INSERT INTO switches (ip, vendor, credential_data, state) VALUES (?, ?, ?, ?)",
			sw.IP, sw.Vendor, sw.CredentialData, sw.State)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Switch{}, fmt.Errorf("switch with IP %s: %w", sw.IP, ErrDuplicate)
			}
			return domain.Switch{}, fmt.Errorf("failed to create switch: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Switch{}, fmt.Errorf("failed to get switch ID: %w", err)
		}
		sw.ID = id
		return sw, nil
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE switches SET ip = ?, vendor = ?, credential_data = ?, state = ? WHERE id = ?",
		sw.IP, sw.Vendor, sw.CredentialData, sw.State, sw.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Switch{}, fmt.Errorf("switch with IP %s: %w", sw.IP, ErrDuplicate)
		}
		return domain.Switch{}, fmt.Errorf("failed to update switch: %w", err)
	}
	return sw, nil
}

// FindByID retrieves a switch by its ID
func (r *switchRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Switch, error) {
	var sw domain.Switch
	err := r.db.QueryRowContext(ctx,
		"SELECT id, ip, vendor, credential_data, state FROM switches WHERE id = ?", id).
		Scan(&sw.ID, &sw.IP, &sw.Vendor, &sw.CredentialData, &sw.State)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Switch{}, fmt.Errorf("switch with ID %d: %w", id, ErrNotFound)
		}
		return domain.Switch{}, fmt.Errorf("failed to find switch: %w", err)
	}
	return sw, nil
}

// FindAll retrieves all switches
func (r *switchRepositoryImpl) FindAll(ctx context.Context) ([]domain.Switch, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, ip, vendor, credential_data, state FROM switches ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list switches: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var switches []domain.Switch
	for rows.Next() {
		var sw domain.Switch
		if err := rows.Scan(&sw.ID, &sw.IP, &sw.Vendor, &sw.CredentialData, &sw.State); err != nil {
			return nil, fmt.Errorf("failed to scan switch: %w", err)
		}
		switches = append(switches, sw)
	}
	return switches, rows.Err()
}

// DeleteByID removes a switch. Machines behind it survive with their
// switch reference cleared by the schema's SET NULL rule.
func (r *switchRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM switches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete switch: %w", err)
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

// ExistsByID checks if a switch exists by its ID
func (r *switchRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM switches WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check switch existence: %w", err)
	}
	return count > 0, nil
}

// FindByIP retrieves a switch by its unique IP address
func (r *switchRepositoryImpl) FindByIP(ctx context.Context, ip string) (domain.Switch, error) {
	var sw domain.Switch
	err := r.db.QueryRowContext(ctx,
		"SELECT id, ip, vendor, credential_data, state FROM switches WHERE ip = ?", ip).
		Scan(&sw.ID, &sw.IP, &sw.Vendor, &sw.CredentialData, &sw.State)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Switch{}, fmt.Errorf("switch with IP %s: %w", ip, ErrNotFound)
		}
		return domain.Switch{}, fmt.Errorf("failed to find switch by IP: %w", err)
	}
	return sw, nil
}

// MergeCredential merges values into the stored credential fragment as a
// single read-modify-write transaction scoped to the switch row.
func (r *switchRepositoryImpl) MergeCredential(ctx context.Context, id int64, values confmap.Map) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "credential merge")

	sw := domain.Switch{ID: id}
	err = tx.QueryRowContext(ctx, "SELECT credential_data FROM switches WHERE id = ?", id).
		Scan(&sw.CredentialData)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("switch with ID %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to read credential: %w", err)
	}

	sw.SetCredential(values)

	if _, err := tx.ExecContext(ctx,
		"UPDATE switches SET credential_data = ? WHERE id = ?", sw.CredentialData, id); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return tx.Commit()
}
