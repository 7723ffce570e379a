package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/domain"
)

// AdapterRepository defines domain-specific operations for adapters
type AdapterRepository interface {
	Repository[domain.Adapter, int64]
	FindByName(ctx context.Context, name string) (domain.Adapter, error)
}

// adapterRepositoryImpl implements AdapterRepository
type adapterRepositoryImpl struct {
	db *sql.DB
}

// NewAdapterRepository creates a new adapter repository
func NewAdapterRepository(db *sql.DB) AdapterRepository {
	return &adapterRepositoryImpl{db: db}
}

// Save creates or updates an adapter
func (r *adapterRepositoryImpl) Save(ctx context.Context, adapter domain.Adapter) (domain.Adapter, error) {
	if adapter.Name == "" {
		return domain.Adapter{}, fmt.Errorf("adapter name is required: %w", ErrInvalidEntity)
	}

	if adapter.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			"INSERT INTO adapters (name, os, target_system) VALUES (?, ?, ?)",
			adapter.Name, adapter.OS, adapter.TargetSystem)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Adapter{}, fmt.Errorf("adapter with name %s: %w", adapter.Name, ErrDuplicate)
			}
			return domain.Adapter{}, fmt.Errorf("failed to create adapter: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Adapter{}, fmt.Errorf("failed to get adapter ID: %w", err)
		}
		adapter.ID = id
		return adapter, nil
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE adapters SET name = ?, os = ?, target_system = ? WHERE id = ?",
		adapter.Name, adapter.OS, adapter.TargetSystem, adapter.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Adapter{}, fmt.Errorf("adapter with name %s: %w", adapter.Name, ErrDuplicate)
		}
		return domain.Adapter{}, fmt.Errorf("failed to update adapter: %w", err)
	}
	return adapter, nil
}

// FindByID retrieves an adapter by its ID
func (r *adapterRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Adapter, error) {
	var a domain.Adapter
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, os, target_system FROM adapters WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &a.OS, &a.TargetSystem)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Adapter{}, fmt.Errorf("adapter with ID %d: %w", id, ErrNotFound)
		}
		return domain.Adapter{}, fmt.Errorf("failed to find adapter: %w", err)
	}
	return a, nil
}

// FindByName retrieves an adapter by its unique name
func (r *adapterRepositoryImpl) FindByName(ctx context.Context, name string) (domain.Adapter, error) {
	var a domain.Adapter
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, os, target_system FROM adapters WHERE name = ?", name).
		Scan(&a.ID, &a.Name, &a.OS, &a.TargetSystem)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Adapter{}, fmt.Errorf("adapter with name %s: %w", name, ErrNotFound)
		}
		return domain.Adapter{}, fmt.Errorf("failed to find adapter by name: %w", err)
	}
	return a, nil
}

// FindAll retrieves all adapters
func (r *adapterRepositoryImpl) FindAll(ctx context.Context) ([]domain.Adapter, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, os, target_system FROM adapters ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list adapters: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var adapters []domain.Adapter
	for rows.Next() {
		var a domain.Adapter
		if err := rows.Scan(&a.ID, &a.Name, &a.OS, &a.TargetSystem); err != nil {
			return nil, fmt.Errorf("failed to scan adapter: %w", err)
		}
		adapters = append(adapters, a)
	}
	return adapters, rows.Err()
}

// DeleteByID removes an adapter by its ID
func (r *adapterRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM adapters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete adapter: %w", err)
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

// ExistsByID checks if an adapter exists by its ID
func (r *adapterRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM adapters WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check adapter existence: %w", err)
	}
	return count > 0, nil
}
