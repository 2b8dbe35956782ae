package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"path/filepath"

	"regenerate-thumbnails/internal/repository/file"

	"github.com/spf13/afero"
	"github.com/wb-go/wbf/zlog"
)

// FileRepository serves the upload root from a local directory. Every key
// is resolved inside the root, nothing above it is reachable.
type FileRepository struct {
	fs     afero.Fs
	logger *zlog.Zerolog
}

func NewFSRepository(root string, logger *zlog.Zerolog) (*FileRepository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload root: %w", err)
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}

	logger.Info().Str("root", abs).Msg("Using local upload root")

	return NewRepository(afero.NewBasePathFs(osFs, abs), logger), nil
}

func NewRepository(fs afero.Fs, logger *zlog.Zerolog) *FileRepository {
	return &FileRepository{
		fs:     fs,
		logger: logger,
	}
}

func (r *FileRepository) Exists(ctx context.Context, name string) (bool, error) {
	name = file.Clean(name)
	if name == "" {
		return false, nil
	}

	info, err := r.fs.Stat(filepath.FromSlash(name))
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}

	return !info.IsDir(), nil
}

func (r *FileRepository) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := r.fs.Open(filepath.FromSlash(file.Clean(name)))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", file.ErrFileNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	return f, nil
}

func (r *FileRepository) Save(ctx context.Context, name string, data io.Reader, size int64, contentType string) error {
	name = file.Clean(name)
	if err := afero.WriteReader(r.fs, filepath.FromSlash(name), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	r.logger.Debug().Str("path", name).Int64("size", size).Str("content_type", contentType).Msg("File saved")
	return nil
}

// DeleteFromDirectory removes name only if it lives inside dir. A file that
// is already gone is not an error.
func (r *FileRepository) DeleteFromDirectory(ctx context.Context, name, dir string) error {
	if !file.WithinDirectory(name, dir) {
		return fmt.Errorf("%w: %s not in %s", file.ErrOutsideDirectory, name, dir)
	}

	name = file.Clean(name)
	err := r.fs.Remove(filepath.FromSlash(name))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	r.logger.Debug().Str("path", name).Msg("File deleted")
	return nil
}
