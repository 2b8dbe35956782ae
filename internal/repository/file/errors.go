package file

import "errors"

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrOutsideDirectory = errors.New("file is outside of the allowed directory")
)
