package admin

import (
	"context"

	"regenerate-thumbnails/internal/usecase/utility"
)

type utilityLifecycle interface {
	ID() string
	Activate(ctx context.Context) (*utility.Activation, error)
	RenderNotices(ctx context.Context) (string, error)
	ActiveUtilities(ctx context.Context) ([]string, error)
}
