package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/domain"
)

// CheckpointRepository persists log parsing checkpoints. The caller contract
// is single-writer-per-pathname: one log parser owns one file at a time, so
// no per-path locking happens here.
type CheckpointRepository interface {
	Repository[domain.LogCheckpoint, int64]
	FindByPathname(ctx context.Context, pathname string) (domain.LogCheckpoint, error)
	// Commit upserts the checkpoint keyed by pathname. This is the hot
	// path a parser hits after every chunk it processes.
	Commit(ctx context.Context, checkpoint domain.LogCheckpoint) error
}

// checkpointRepositoryImpl implements CheckpointRepository
type checkpointRepositoryImpl struct {
	db    *sql.DB
	cache *PreparedStatementCache
}

// NewCheckpointRepository creates a new checkpoint repository
func NewCheckpointRepository(db *sql.DB) CheckpointRepository {
	return &checkpointRepositoryImpl{
		db:    db,
		cache: NewPreparedStatementCache(db),
	}
}

const commitCheckpointQuery = `
	INSERT INTO log_checkpoints (pathname, position, partial_line, progress, message, severity, line_matcher_name)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(pathname) DO UPDATE SET
		position = excluded.position,
		partial_line = excluded.partial_line,
		progress = excluded.progress,
		message = excluded.message,
		severity = excluded.severity,
		line_matcher_name = excluded.line_matcher_name,
		updated_at = CURRENT_TIMESTAMP`

// Commit upserts a checkpoint by pathname through a cached prepared
// statement.
func (r *checkpointRepositoryImpl) Commit(ctx context.Context, checkpoint domain.LogCheckpoint) error {
	if checkpoint.Pathname == "" {
		return fmt.Errorf("checkpoint pathname is required: %w", ErrInvalidEntity)
	}
	if checkpoint.Severity == "" {
		checkpoint.Severity = domain.SeverityInfo
	}
	if checkpoint.LineMatcherName == "" {
		checkpoint.LineMatcherName = domain.DefaultLineMatcher
	}

	stmt, err := r.cache.Get(commitCheckpointQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare checkpoint commit: %w", err)
	}
	_, err = stmt.ExecContext(ctx,
		checkpoint.Pathname, checkpoint.Position, checkpoint.PartialLine,
		checkpoint.Progress, checkpoint.Message, checkpoint.Severity, checkpoint.LineMatcherName)
	if err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Save creates or updates a checkpoint by ID
func (r *checkpointRepositoryImpl) Save(ctx context.Context, checkpoint domain.LogCheckpoint) (domain.LogCheckpoint, error) {
	if checkpoint.Pathname == "" {
		return domain.LogCheckpoint{}, fmt.Errorf("checkpoint pathname is required: %w", ErrInvalidEntity)
	}
	if checkpoint.Severity == "" {
		checkpoint.Severity = domain.SeverityInfo
	}
	if checkpoint.LineMatcherName == "" {
		checkpoint.LineMatcherName = domain.DefaultLineMatcher
	}

	if checkpoint.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO log_checkpoints (pathname, position, partial_line, progress, message, severity, line_matcher_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			checkpoint.Pathname, checkpoint.Position, checkpoint.PartialLine,
			checkpoint.Progress, checkpoint.Message, checkpoint.Severity, checkpoint.LineMatcherName)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.LogCheckpoint{}, fmt.Errorf("checkpoint for %s: %w", checkpoint.Pathname, ErrDuplicate)
			}
			return domain.LogCheckpoint{}, fmt.Errorf("failed to create checkpoint: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.LogCheckpoint{}, fmt.Errorf("failed to get checkpoint ID: %w", err)
		}
		checkpoint.ID = id
		return checkpoint, nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE log_checkpoints SET pathname = ?, position = ?, partial_line = ?, progress = ?,
		 message = ?, severity = ?, line_matcher_name = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		checkpoint.Pathname, checkpoint.Position, checkpoint.PartialLine, checkpoint.Progress,
		checkpoint.Message, checkpoint.Severity, checkpoint.LineMatcherName, checkpoint.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.LogCheckpoint{}, fmt.Errorf("checkpoint for %s: %w", checkpoint.Pathname, ErrDuplicate)
		}
		return domain.LogCheckpoint{}, fmt.Errorf("failed to update checkpoint: %w", err)
	}
	return checkpoint, nil
}

// FindByID retrieves a checkpoint by its ID
func (r *checkpointRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.LogCheckpoint, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByPathname retrieves the checkpoint for one log file
func (r *checkpointRepositoryImpl) FindByPathname(ctx context.Context, pathname string) (domain.LogCheckpoint, error) {
	return r.findOne(ctx, "pathname = ?", pathname)
}

func (r *checkpointRepositoryImpl) findOne(ctx context.Context, where string, arg any) (domain.LogCheckpoint, error) {
	var c domain.LogCheckpoint
	err := r.db.QueryRowContext(ctx,
		`SELECT id, pathname, position, partial_line, progress, message, severity, line_matcher_name, updated_at
		 FROM log_checkpoints WHERE `+where, arg).
		Scan(&c.ID, &c.Pathname, &c.Position, &c.PartialLine, &c.Progress,
			&c.Message, &c.Severity, &c.LineMatcherName, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.LogCheckpoint{}, fmt.Errorf("checkpoint %v: %w", arg, ErrNotFound)
		}
		return domain.LogCheckpoint{}, fmt.Errorf("failed to find checkpoint: %w", err)
	}
	return c, nil
}

// FindAll retrieves all checkpoints
func (r *checkpointRepositoryImpl) FindAll(ctx context.Context) ([]domain.LogCheckpoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, pathname, position, partial_line, progress, message, severity, line_matcher_name, updated_at
		 FROM log_checkpoints ORDER BY pathname ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var checkpoints []domain.LogCheckpoint
	for rows.Next() {
		var c domain.LogCheckpoint
		if err := rows.Scan(&c.ID, &c.Pathname, &c.Position, &c.PartialLine, &c.Progress,
			&c.Message, &c.Severity, &c.LineMatcherName, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, c)
	}
	return checkpoints, rows.Err()
}

// DeleteByID removes a checkpoint by its ID
func (r *checkpointRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM log_checkpoints WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
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

// ExistsByID checks if a checkpoint exists by its ID
func (r *checkpointRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM log_checkpoints WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check checkpoint existence: %w", err)
	}
	return count > 0, nil
}
