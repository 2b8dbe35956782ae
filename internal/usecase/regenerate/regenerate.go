package regenerate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"regenerate-thumbnails/internal/domain"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type Usecase struct {
	attachments attachmentRepository
	files       fileStorage
	processor   imageProcessor
	events      eventPublisher
	logger      *zlog.Zerolog
}

func New(
	attachments attachmentRepository,
	files fileStorage,
	processor imageProcessor,
	events eventPublisher,
	logger *zlog.Zerolog,
) *Usecase {
	return &Usecase{
		attachments: attachments,
		files:       files,
		processor:   processor,
		events:      events,
		logger:      logger,
	}
}

// Run regenerates the sizes of every image attachment. A failed item is
// counted in Found but not in Created and never stops the run; only
// failing to list the attachments or a cancelled context does.
func (u *Usecase) Run(ctx context.Context) (*domain.RunResult, error) {
	result := &domain.RunResult{ID: uuid.New().String()}

	attachments, err := u.attachments.ListImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if len(attachments) == 0 {
		u.logger.Info().Str("run_id", result.ID).Msg("No images found")
		return result, ErrNoImagesFound
	}

	result.Found = len(attachments)
	u.logger.Info().Str("run_id", result.ID).Int("found", result.Found).Msg("Regeneration started")

	for _, att := range attachments {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("regeneration interrupted: %w", err)
		}

		if u.RecreateImageVariations(ctx, result.ID, att, att.OriginalImagePath()) {
			result.Created++
		}
	}

	u.logger.Info().
		Str("run_id", result.ID).
		Int("found", result.Found).
		Int("created", result.Created).
		Msg("Regeneration finished")

	return result, nil
}

// RecreateImageVariations rebuilds the sizes of one attachment from the
// file at source. The new sizes are written and stored before the old ones
// are removed, so a failure leaves the attachment as it was.
func (u *Usecase) RecreateImageVariations(ctx context.Context, runID string, att domain.Attachment, source string) bool {
	if source == "" {
		u.logger.Warn().Str("run_id", runID).Str("attachment_id", att.ID).Msg("Attachment has no file")
		return false
	}

	exists, err := u.files.Exists(ctx, source)
	if err != nil {
		u.logger.Error().
			Str("run_id", runID).
			Str("attachment_id", att.ID).
			Err(err).
			Str("source", source).
			Msg("Failed to check original")
		return false
	}
	if !exists {
		u.logger.Warn().
			Str("run_id", runID).
			Str("attachment_id", att.ID).
			Str("source", source).
			Msg("Original image is missing")
		return false
	}

	meta, err := u.processor.GenerateMetadata(ctx, att, source)
	if err != nil {
		u.logger.Error().
			Str("run_id", runID).
			Str("attachment_id", att.ID).
			Err(err).
			Str("source", source).
			Msg("Failed to generate sizes")
		return false
	}

	if err := u.attachments.UpdateMetadata(ctx, att.ID, meta); err != nil {
		u.logger.Error().Str("run_id", runID).Str("attachment_id", att.ID).Err(err).Msg("Failed to update metadata")
		return false
	}

	if att.Metadata != nil {
		keep := make(map[string]struct{}, len(meta.Sizes))
		for _, variant := range meta.Sizes {
			keep[variant.File] = struct{}{}
		}

		old := att.Metadata.Clone()
		if err := RemoveSizeVariations(ctx, u.files, source, old, keep); err != nil {
			u.logger.Warn().
				Str("run_id", runID).
				Str("attachment_id", att.ID).
				Err(err).
				Msg("Failed to remove some old sizes")
		}
	}

	u.publish(ctx, runID, att, meta)

	u.logger.Debug().
		Str("run_id", runID).
		Str("attachment_id", att.ID).
		Int("sizes", len(meta.Sizes)).
		Msg("Attachment regenerated")
	return true
}

func (u *Usecase) publish(ctx context.Context, runID string, att domain.Attachment, meta *domain.AttachmentMetadata) {
	sizes := make([]string, 0, len(meta.Sizes))
	for name := range meta.Sizes {
		sizes = append(sizes, name)
	}
	sort.Strings(sizes)

	event := domain.RegenerationEvent{
		RunID:         runID,
		AttachmentID:  att.ID,
		File:          att.File,
		Sizes:         sizes,
		RegeneratedAt: time.Now().UTC(),
	}
	if err := u.events.PublishRegenerated(ctx, event); err != nil {
		u.logger.Warn().Err(err).Str("run_id", runID).Str("attachment_id", att.ID).Msg("Failed to publish event")
	}
}

// RemoveSizeVariations deletes every size file listed in meta. Files are
// resolved next to originalPath and removed only from that directory.
// Names in keep are skipped. meta.Sizes is emptied whatever the outcome.
func RemoveSizeVariations(ctx context.Context, files fileStorage, originalPath string, meta *domain.AttachmentMetadata, keep map[string]struct{}) error {
	if meta == nil {
		return nil
	}

	dir := path.Dir(originalPath)
	if dir == "." {
		dir = ""
	}

	var errs []error
	for size, variant := range meta.Sizes {
		if variant.File == "" {
			continue
		}
		if _, ok := keep[variant.File]; ok {
			continue
		}

		name := variant.File
		if dir != "" {
			name = dir + "/" + variant.File
		}
		if err := files.DeleteFromDirectory(ctx, name, dir); err != nil {
			errs = append(errs, fmt.Errorf("size %s: %w", size, err))
		}
	}

	meta.Sizes = map[string]domain.SizeVariant{}
	return errors.Join(errs...)
}
