package domain

import "time"

type RunResult struct {
	ID      string
	Found   int
	Created int
}

type RegenerationEvent struct {
	RunID         string    `json:"run_id"`
	AttachmentID  string    `json:"attachment_id"`
	File          string    `json:"file"`
	Sizes         []string  `json:"sizes"`
	RegeneratedAt time.Time `json:"regenerated_at"`
}

type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeSuccess NoticeLevel = "success"
)

const NoticeKey = "regenerate-plugin-notice"

type Notice struct {
	Key       string
	Level     NoticeLevel
	Body      string
	CreatedAt time.Time
}
