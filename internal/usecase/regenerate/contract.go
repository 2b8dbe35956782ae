package regenerate

import (
	"context"

	"regenerate-thumbnails/internal/domain"
)

type attachmentRepository interface {
	ListImages(ctx context.Context) ([]domain.Attachment, error)
	UpdateMetadata(ctx context.Context, id string, meta *domain.AttachmentMetadata) error
}

type fileStorage interface {
	Exists(ctx context.Context, name string) (bool, error)
	DeleteFromDirectory(ctx context.Context, name, dir string) error
}

type imageProcessor interface {
	GenerateMetadata(ctx context.Context, att domain.Attachment, source string) (*domain.AttachmentMetadata, error)
}

type eventPublisher interface {
	PublishRegenerated(ctx context.Context, event domain.RegenerationEvent) error
}
