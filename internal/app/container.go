package app

import (
	"context"
	"fmt"
	"io"

	"regenerate-thumbnails/internal/broker"
	kafka_impl "regenerate-thumbnails/internal/broker/kafka"
	"regenerate-thumbnails/internal/config"
	"regenerate-thumbnails/internal/domain"
	attachment_repo "regenerate-thumbnails/internal/repository/attachment/db/postgres"
	minio_repo "regenerate-thumbnails/internal/repository/file/cloud/minio"
	fs_repo "regenerate-thumbnails/internal/repository/file/fs"
	utility_repo "regenerate-thumbnails/internal/repository/utility/db/postgres"
	"regenerate-thumbnails/internal/usecase/processor"
	"regenerate-thumbnails/internal/usecase/processor/operations"
	"regenerate-thumbnails/internal/usecase/regenerate"
	"regenerate-thumbnails/internal/usecase/utility"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type fileStorage interface {
	Exists(ctx context.Context, name string) (bool, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Save(ctx context.Context, name string, data io.Reader, size int64, contentType string) error
	DeleteFromDirectory(ctx context.Context, name, dir string) error
}

type eventPublisher interface {
	PublishRegenerated(ctx context.Context, event domain.RegenerationEvent) error
}

// Container holds the wiring shared by the server and the one-shot
// command.
type Container struct {
	Lifecycle *utility.Lifecycle

	db       *dbpg.DB
	producer *kafka_impl.EventsProducer
	logger   *zlog.Zerolog
}

func NewContainer(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (*Container, error) {
	retries := cfg.DefaultRetryStrategy()

	sizes, err := cfg.Images.ImageSizes()
	if err != nil {
		return nil, fmt.Errorf("failed to parse image sizes: %w", err)
	}

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c := &Container{db: db, logger: logger}

	files, err := newFileStorage(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	imageProcessor, err := processor.NewImageProcessor(files, sizes, processor.Options{
		JPEGQuality: cfg.Images.JPEGQuality,
		Watermark: operations.WatermarkOptions{
			Text:     cfg.Images.WatermarkText,
			Position: domain.WatermarkPosition(cfg.Images.WatermarkPosition),
			Opacity:  cfg.Images.WatermarkOpacity,
		},
	}, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create image processor: %w", err)
	}

	var events eventPublisher = broker.NopPublisher{}
	if cfg.EventsEnabled() {
		producer, err := kafka_impl.NewEventsProducer(cfg.Kafka, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create events producer: %w", err)
		}
		c.producer = producer
		events = broker.NewEventPublisher(producer, retries, logger)
	}

	attachments := attachment_repo.NewAttachmentsRepository(db, retries)
	utilities := utility_repo.NewUtilityRepository(db, retries)

	regenerateUsecase := regenerate.New(attachments, files, imageProcessor, events, logger)
	c.Lifecycle = utility.NewLifecycle(cfg.Utility.ID, utilities, regenerateUsecase, logger)

	return c, nil
}

func newFileStorage(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (fileStorage, error) {
	switch cfg.Storage.Backend {
	case config.StorageMinIO:
		return minio_repo.NewMinIORepository(ctx, cfg, logger)
	case config.StorageFS:
		return fs_repo.NewFSRepository(cfg.Storage.UploadRoot, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (c *Container) Close() {
	if c.db != nil && c.db.Master != nil {
		if err := c.db.Master.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to close database")
		}
	}

	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to close producer")
		}
	}
}
