package operations

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"regenerate-thumbnails/internal/domain"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// OutputFormat maps a source format to the one variants are written in.
// WebP has no encoder here, so those variants become JPEG.
func OutputFormat(src domain.ImageFormat) domain.ImageFormat {
	switch src {
	case domain.FormatPNG, domain.FormatGIF, domain.FormatBMP, domain.FormatTIFF:
		return src
	default:
		return domain.FormatJPEG
	}
}

func Encode(w io.Writer, img image.Image, format domain.ImageFormat, quality int) error {
	var err error

	switch format {
	case domain.FormatPNG:
		err = png.Encode(w, img)
	case domain.FormatGIF:
		err = gif.Encode(w, img, nil)
	case domain.FormatBMP:
		err = bmp.Encode(w, img)
	case domain.FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		if quality <= 0 {
			quality = domain.DefaultJPEGQuality
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}

	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}

	return nil
}

func Extension(format domain.ImageFormat) string {
	switch format {
	case domain.FormatPNG:
		return ".png"
	case domain.FormatGIF:
		return ".gif"
	case domain.FormatBMP:
		return ".bmp"
	case domain.FormatTIFF:
		return ".tif"
	case domain.FormatWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}

func MimeType(format domain.ImageFormat) string {
	switch format {
	case domain.FormatPNG:
		return "image/png"
	case domain.FormatGIF:
		return "image/gif"
	case domain.FormatBMP:
		return "image/bmp"
	case domain.FormatTIFF:
		return "image/tiff"
	case domain.FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// FormatFromMime returns the format for a sniffed content type and whether
// it is one this package can decode.
func FormatFromMime(mime string) (domain.ImageFormat, bool) {
	switch mime {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return domain.FormatJPEG, true
	case "image/png":
		return domain.FormatPNG, true
	case "image/gif":
		return domain.FormatGIF, true
	case "image/bmp", "image/x-ms-bmp":
		return domain.FormatBMP, true
	case "image/tiff":
		return domain.FormatTIFF, true
	case "image/webp":
		return domain.FormatWebP, true
	default:
		return "", false
	}
}
