package processor

import (
	"context"
	"io"
)

type fileRepository interface {
	Exists(ctx context.Context, name string) (bool, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Save(ctx context.Context, name string, data io.Reader, size int64, contentType string) error
	DeleteFromDirectory(ctx context.Context, name, dir string) error
}
