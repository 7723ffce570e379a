package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/domain"
)

// RoleRepository defines domain-specific operations for roles
type RoleRepository interface {
	Repository[domain.Role, int64]
	FindByName(ctx context.Context, name string) (domain.Role, error)
	FindByTargetSystem(ctx context.Context, targetSystem string) ([]domain.Role, error)
}

// roleRepositoryImpl implements RoleRepository
type roleRepositoryImpl struct {
	db *sql.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sql.DB) RoleRepository {
	return &roleRepositoryImpl{db: db}
}

// Save creates or updates a role
func (r *roleRepositoryImpl) Save(ctx context.Context, role domain.Role) (domain.Role, error) {
	if role.Name == "" {
		return domain.Role{}, fmt.Errorf("role name is required: %w", ErrInvalidEntity)
	}

	if role.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			"INSERT INTO roles (name, target_system, description) VALUES (?, ?, ?)",
			role.Name, role.TargetSystem, role.Description)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Role{}, fmt.Errorf("role with name %s: %w", role.Name, ErrDuplicate)
			}
			return domain.Role{}, fmt.Errorf("failed to create role: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Role{}, fmt.Errorf("failed to get role ID: %w", err)
		}
		role.ID = id
		return role, nil
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE roles SET name = ?, target_system = ?, description = ? WHERE id = ?",
		role.Name, role.TargetSystem, role.Description, role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Role{}, fmt.Errorf("role with name %s: %w", role.Name, ErrDuplicate)
		}
		return domain.Role{}, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

// FindByID retrieves a role by its ID
func (r *roleRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, target_system, description FROM roles WHERE id = ?", id).
		Scan(&role.ID, &role.Name, &role.TargetSystem, &role.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Role{}, fmt.Errorf("role with ID %d: %w", id, ErrNotFound)
		}
		return domain.Role{}, fmt.Errorf("failed to find role: %w", err)
	}
	return role, nil
}

// FindByName retrieves a role by its unique name
func (r *roleRepositoryImpl) FindByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, target_system, description FROM roles WHERE name = ?", name).
		Scan(&role.ID, &role.Name, &role.TargetSystem, &role.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Role{}, fmt.Errorf("role with name %s: %w", name, ErrNotFound)
		}
		return domain.Role{}, fmt.Errorf("failed to find role by name: %w", err)
	}
	return role, nil
}

// FindByTargetSystem retrieves the roles deployable on one target system
func (r *roleRepositoryImpl) FindByTargetSystem(ctx context.Context, targetSystem string) ([]domain.Role, error) {
	return r.queryRoles(ctx,
		"SELECT id, name, target_system, description FROM roles WHERE target_system = ? ORDER BY name ASC",
		targetSystem)
}

// FindAll retrieves all roles
func (r *roleRepositoryImpl) FindAll(ctx context.Context) ([]domain.Role, error) {
	return r.queryRoles(ctx,
		"SELECT id, name, target_system, description FROM roles ORDER BY name ASC")
}

func (r *roleRepositoryImpl) queryRoles(ctx context.Context, query string, args ...any) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.TargetSystem, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// DeleteByID removes a role by its ID
func (r *roleRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
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

// ExistsByID checks if a role exists by its ID
func (r *roleRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roles WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check role existence: %w", err)
	}
	return count > 0, nil
}
