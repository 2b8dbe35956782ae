package domain

import (
	"path"
	"time"
)

const (
	AttachmentType  = "attachment"
	StatusInherit   = "inherit"
	ImageMimePrefix = "image"
)

// Attachment is one uploaded file of the media library. File is relative
// to the upload root, e.g. "2024/05/photo.jpg".
type Attachment struct {
	ID        string
	Type      string
	Status    string
	MimeType  string
	File      string
	Metadata  *AttachmentMetadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AttachmentMetadata struct {
	Width         int                    `json:"width"`
	Height        int                    `json:"height"`
	File          string                 `json:"file"`
	Filesize      int64                  `json:"filesize,omitempty"`
	OriginalImage string                 `json:"original_image,omitempty"`
	Sizes         map[string]SizeVariant `json:"sizes"`
}

// SizeVariant describes one generated file. File is a bare file name that
// lives next to the original.
type SizeVariant struct {
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime-type"`
	Filesize int64  `json:"filesize,omitempty"`
}

// OriginalImagePath returns the path of the file sizes are generated from.
// When the metadata records an unscaled original, that file wins over the
// attached one.
func (a *Attachment) OriginalImagePath() string {
	if a.File == "" {
		return ""
	}
	if a.Metadata != nil && a.Metadata.OriginalImage != "" {
		return path.Join(path.Dir(a.File), a.Metadata.OriginalImage)
	}
	return a.File
}

func (m *AttachmentMetadata) Clone() *AttachmentMetadata {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Sizes = make(map[string]SizeVariant, len(m.Sizes))
	for name, variant := range m.Sizes {
		clone.Sizes[name] = variant
	}
	return &clone
}
