package utility

import (
	"fmt"
	"time"

	"regenerate-thumbnails/internal/domain"
)

// Bodies are emitted as-is. The only variable part is an integer.
const (
	noImagesBody      = `<div class="notice notice-warning is-dismissible"><p>No images uploaded found.</p></div>`
	successBodyFormat = `<div class="notice notice-success is-dismissible"><p>%d images updated with current image sizes. Plugin is now deactivated.</p></div>`
)

func NoImagesNotice() *domain.Notice {
	return &domain.Notice{
		Key:       domain.NoticeKey,
		Level:     domain.NoticeWarning,
		Body:      noImagesBody,
		CreatedAt: time.Now(),
	}
}

func SuccessNotice(created int) *domain.Notice {
	return &domain.Notice{
		Key:       domain.NoticeKey,
		Level:     domain.NoticeSuccess,
		Body:      fmt.Sprintf(successBodyFormat, created),
		CreatedAt: time.Now(),
	}
}
