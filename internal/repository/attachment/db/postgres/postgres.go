package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"regenerate-thumbnails/internal/domain"
	"regenerate-thumbnails/internal/repository/attachment"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type AttachmentsRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewAttachmentsRepository(db *dbpg.DB, retries retry.Strategy) *AttachmentsRepository {
	return &AttachmentsRepository{
		db:      db,
		retries: retries,
	}
}

// ListImages returns every live image attachment in one go. The order is
// whatever the database hands back.
func (r *AttachmentsRepository) ListImages(ctx context.Context) ([]domain.Attachment, error) {
	query := `
		SELECT id, post_type, post_status, mime_type,
		       attached_file, metadata, created_at, updated_at
		FROM attachments
		WHERE post_type = $1 AND post_status = $2 AND mime_type LIKE $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query,
		domain.AttachmentType,
		domain.StatusInherit,
		domain.ImageMimePrefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *att)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return attachments, nil
}

func (r *AttachmentsRepository) UpdateMetadata(ctx context.Context, id string, meta *domain.AttachmentMetadata) error {
	var payload any
	if meta != nil {
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		payload = string(data)
	}

	query := `UPDATE attachments SET metadata = $1::jsonb, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, payload, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return attachment.ErrAttachmentNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttachment(s scanner) (*domain.Attachment, error) {
	var (
		att domain.Attachment
		raw []byte
	)

	err := s.Scan(
		&att.ID,
		&att.Type,
		&att.Status,
		&att.MimeType,
		&att.File,
		&raw,
		&att.CreatedAt,
		&att.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan attachment: %w", err)
	}

	meta, err := decodeMetadata(raw)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: %w", att.ID, err)
	}
	att.Metadata = meta

	return &att, nil
}

func decodeMetadata(raw []byte) (*domain.AttachmentMetadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var meta domain.AttachmentMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", attachment.ErrInvalidMetadata, err)
	}

	return &meta, nil
}
