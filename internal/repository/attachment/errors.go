package attachment

import "errors"

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidMetadata    = errors.New("invalid attachment metadata")
)
