package processor

import "errors"

var (
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrEmptyImage       = errors.New("image has no pixels")
)
