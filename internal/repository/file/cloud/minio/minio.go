package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"regenerate-thumbnails/internal/config"
	"regenerate-thumbnails/internal/repository/file"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

const codeNoSuchKey = "NoSuchKey"

// FileRepository keeps the upload root in a bucket. Keys are the same
// relative paths the attachments table stores, optionally under a prefix.
type FileRepository struct {
	client *minio.Client
	bucket string
	prefix string
	logger *zlog.Zerolog
}

func NewMinIORepository(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Minio.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Minio.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Minio.Bucket)
	}

	logger.Info().
		Str("endpoint", cfg.Minio.Endpoint).
		Str("bucket", cfg.Minio.Bucket).
		Str("prefix", cfg.Minio.Prefix).
		Msg("Using minio upload root")

	return &FileRepository{
		client: client,
		bucket: cfg.Minio.Bucket,
		prefix: file.Clean(cfg.Minio.Prefix),
		logger: logger,
	}, nil
}

func (r *FileRepository) Exists(ctx context.Context, name string) (bool, error) {
	if file.Clean(name) == "" {
		return false, nil
	}

	_, err := r.client.StatObject(ctx, r.bucket, r.objectKey(name), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == codeNoSuchKey {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}

	return true, nil
}

func (r *FileRepository) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, r.objectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}

	// GetObject is lazy, Stat surfaces a missing key before the first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == codeNoSuchKey {
			return nil, fmt.Errorf("%w: %s", file.ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}

	return obj, nil
}

func (r *FileRepository) Save(ctx context.Context, name string, data io.Reader, size int64, contentType string) error {
	key := r.objectKey(name)

	info, err := r.client.PutObject(ctx, r.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", name, err)
	}

	r.logger.Debug().
		Str("key", key).
		Int64("size", info.Size).
		Str("content_type", contentType).
		Msg("Object saved")
	return nil
}

// DeleteFromDirectory removes the object only if name lives inside dir.
// Removing a missing key succeeds on S3-compatible stores.
func (r *FileRepository) DeleteFromDirectory(ctx context.Context, name, dir string) error {
	if !file.WithinDirectory(name, dir) {
		return fmt.Errorf("%w: %s not in %s", file.ErrOutsideDirectory, name, dir)
	}

	key := r.objectKey(name)
	if err := r.client.RemoveObject(ctx, r.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	r.logger.Debug().Str("key", key).Msg("Object deleted")
	return nil
}

func (r *FileRepository) objectKey(name string) string {
	if r.prefix == "" {
		return file.Clean(name)
	}
	return path.Join(r.prefix, file.Clean(name))
}
