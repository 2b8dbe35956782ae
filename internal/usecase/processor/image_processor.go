package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"regenerate-thumbnails/internal/domain"
	"regenerate-thumbnails/internal/usecase/processor/operations"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/webp"
)

type Options struct {
	JPEGQuality int
	Watermark   operations.WatermarkOptions
}

// ImageProcessor rebuilds the attachment metadata of one image: it reads
// the original, writes a file for every configured size that fits, and
// describes the result.
type ImageProcessor struct {
	files       fileRepository
	sizes       []domain.ImageSize
	opts        Options
	resizer     *operations.Resizer
	thumbnailer *operations.Thumbnailer
	watermarker *operations.Watermarker
	logger      *zlog.Zerolog
}

func NewImageProcessor(files fileRepository, sizes []domain.ImageSize, opts Options, logger *zlog.Zerolog) (*ImageProcessor, error) {
	watermarker, err := operations.NewWatermarker()
	if err != nil {
		return nil, fmt.Errorf("failed to create watermarker: %w", err)
	}

	return &ImageProcessor{
		files:       files,
		sizes:       sizes,
		opts:        opts,
		resizer:     operations.NewResizer(),
		thumbnailer: operations.NewThumbnailer(),
		watermarker: watermarker,
		logger:      logger,
	}, nil
}

// GenerateMetadata regenerates every configured size from source. On error
// the files this call created are removed again; files that already
// existed are left alone.
func (p *ImageProcessor) GenerateMetadata(ctx context.Context, att domain.Attachment, source string) (*domain.AttachmentMetadata, error) {
	data, err := p.readOriginal(ctx, source)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data)
	format, ok := operations.FormatFromMime(mime.String())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	meta := &domain.AttachmentMetadata{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		File:     att.File,
		Filesize: int64(len(data)),
		Sizes:    make(map[string]domain.SizeVariant, len(p.sizes)),
	}
	if att.Metadata != nil {
		meta.OriginalImage = att.Metadata.OriginalImage
	}

	p.logger.Info().
		Str("attachment_id", att.ID).
		Str("source", source).
		Str("mime_type", mime.String()).
		Int("width", meta.Width).
		Int("height", meta.Height).
		Str("filesize", humanize.Bytes(uint64(len(data)))).
		Msg("Regenerating image sizes")

	outFormat := operations.OutputFormat(format)
	dir := path.Dir(source)
	stem, ext := splitName(path.Base(source))
	if outFormat != format || ext == "" {
		ext = operations.Extension(outFormat)
	}

	var created []string
	written := make(map[string]domain.SizeVariant)

	for _, size := range p.sizes {
		if err := ctx.Err(); err != nil {
			p.cleanup(ctx, created, dir)
			return nil, err
		}

		dims, ok := resizeDimensions(meta.Width, meta.Height, size.Width, size.Height, size.Crop)
		if !ok {
			p.logger.Debug().
				Str("attachment_id", att.ID).
				Str("size", size.Name).
				Msg("Size skipped, original is not larger")
			continue
		}

		name := fmt.Sprintf("%s-%dx%d%s", stem, dims.DstW, dims.DstH, ext)
		if size.Watermark && p.opts.Watermark.Text != "" {
			name = fmt.Sprintf("%s-%dx%d-wm%s", stem, dims.DstW, dims.DstH, ext)
		}

		if variant, ok := written[name]; ok {
			meta.Sizes[size.Name] = variant
			continue
		}

		variant, isNew, err := p.writeVariant(ctx, img, path.Join(dir, name), name, dims, size, outFormat)
		if isNew {
			created = append(created, path.Join(dir, name))
		}
		if err != nil {
			p.cleanup(ctx, created, dir)
			return nil, fmt.Errorf("size %s: %w", size.Name, err)
		}

		written[name] = variant
		meta.Sizes[size.Name] = variant

		p.logger.Debug().
			Str("attachment_id", att.ID).
			Str("size", size.Name).
			Str("file", name).
			Str("filesize", humanize.Bytes(uint64(variant.Filesize))).
			Msg("Size generated")
	}

	return meta, nil
}

func (p *ImageProcessor) readOriginal(ctx context.Context, source string) ([]byte, error) {
	reader, err := p.files.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open original: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read original: %w", err)
	}

	return data, nil
}

// writeVariant reports isNew when the key did not exist before, so a
// failed run can tell its own files apart from older ones.
func (p *ImageProcessor) writeVariant(ctx context.Context, img image.Image, key, name string, dims dimensions, size domain.ImageSize, format domain.ImageFormat) (domain.SizeVariant, bool, error) {
	var out image.Image
	if size.Crop {
		out = p.thumbnailer.Crop(img, dims.SrcX, dims.SrcY, dims.SrcW, dims.SrcH, dims.DstW, dims.DstH)
	} else {
		out = p.resizer.Resize(img, dims.DstW, dims.DstH)
	}

	if size.Watermark && p.opts.Watermark.Text != "" {
		marked, err := p.watermarker.Apply(out, p.opts.Watermark)
		if err != nil {
			return domain.SizeVariant{}, false, err
		}
		out = marked
	}

	buf := new(bytes.Buffer)
	if err := operations.Encode(buf, out, format, p.opts.JPEGQuality); err != nil {
		return domain.SizeVariant{}, false, err
	}

	existed, err := p.files.Exists(ctx, key)
	if err != nil {
		return domain.SizeVariant{}, false, fmt.Errorf("failed to check %s: %w", key, err)
	}

	mimeType := operations.MimeType(format)
	size64 := int64(buf.Len())
	if err := p.files.Save(ctx, key, bytes.NewReader(buf.Bytes()), size64, mimeType); err != nil {
		return domain.SizeVariant{}, !existed, fmt.Errorf("failed to save %s: %w", key, err)
	}

	return domain.SizeVariant{
		File:     name,
		Width:    dims.DstW,
		Height:   dims.DstH,
		MimeType: mimeType,
		Filesize: size64,
	}, !existed, nil
}

func (p *ImageProcessor) cleanup(ctx context.Context, keys []string, dir string) {
	for _, key := range keys {
		if err := p.files.DeleteFromDirectory(context.WithoutCancel(ctx), key, dir); err != nil {
			p.logger.Warn().Err(err).Str("path", key).Msg("Failed to remove partial size")
		}
	}
}

func splitName(name string) (string, string) {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
