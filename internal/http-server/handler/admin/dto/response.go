package dto

import "time"

type ActivateResponse struct {
	RunID   string         `json:"run_id,omitempty"`
	Found   int            `json:"found"`
	Created int            `json:"created"`
	Notice  NoticeResponse `json:"notice"`
}

type NoticeResponse struct {
	Level     string    `json:"level"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type UtilitiesResponse struct {
	Active []string `json:"active"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
