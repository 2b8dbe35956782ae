package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"regenerate-thumbnails/internal/domain"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

// UtilityRepository keeps the set of active utilities and the notices they
// leave behind for the admin screen.
type UtilityRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewUtilityRepository(db *dbpg.DB, retries retry.Strategy) *UtilityRepository {
	return &UtilityRepository{
		db:      db,
		retries: retries,
	}
}

func (r *UtilityRepository) Activate(ctx context.Context, id string) error {
	query := `
		INSERT INTO active_utilities (id, activated_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, id, time.Now()); err != nil {
		return fmt.Errorf("failed to activate utility: %w", err)
	}

	return nil
}

// Deactivate reports whether the utility was active.
func (r *UtilityRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM active_utilities WHERE id = $1`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate utility: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *UtilityRepository) ListActive(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM active_utilities ORDER BY position`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active utilities: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan utility: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active utilities: %w", err)
	}

	return ids, nil
}

// SaveNotice stores the notice under its key, replacing any previous one
// and resetting its consumed flag.
func (r *UtilityRepository) SaveNotice(ctx context.Context, notice *domain.Notice) error {
	query := `
		INSERT INTO notices (key, level, body, consumed, created_at)
		VALUES ($1, $2, $3, false, $4)
		ON CONFLICT (key) DO UPDATE
		SET level = EXCLUDED.level,
		    body = EXCLUDED.body,
		    consumed = false,
		    created_at = EXCLUDED.created_at
	`

	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = time.Now()
	}

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		notice.Key,
		notice.Level,
		notice.Body,
		notice.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notice: %w", err)
	}

	return nil
}

// ConsumeNotice flips the consumed flag and returns the notice, or nil when
// there is nothing left to show.
func (r *UtilityRepository) ConsumeNotice(ctx context.Context, key string) (*domain.Notice, error) {
	query := `
		UPDATE notices SET consumed = true
		WHERE key = $1 AND NOT consumed
		RETURNING key, level, body, created_at
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to consume notice: %w", err)
	}

	var notice domain.Notice
	err = row.Scan(&notice.Key, &notice.Level, &notice.Body, &notice.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notice: %w", err)
	}

	return &notice, nil
}

func (r *UtilityRepository) DeleteNotice(ctx context.Context, key string) error {
	query := `DELETE FROM notices WHERE key = $1`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, key); err != nil {
		return fmt.Errorf("failed to delete notice: %w", err)
	}

	return nil
}
