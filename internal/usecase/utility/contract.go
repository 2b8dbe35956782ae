package utility

import (
	"context"

	"regenerate-thumbnails/internal/domain"
)

type utilityStore interface {
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) (bool, error)
	ListActive(ctx context.Context) ([]string, error)
	SaveNotice(ctx context.Context, notice *domain.Notice) error
	ConsumeNotice(ctx context.Context, key string) (*domain.Notice, error)
	DeleteNotice(ctx context.Context, key string) error
}

type regenerator interface {
	Run(ctx context.Context) (*domain.RunResult, error)
}
