// Package api defines the request and response types of the controller API.
package api

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateScheduleRequest creates one generation schedule.
type CreateScheduleRequest struct {
	TemplateID  string          `json:"template_id"`
	Frequency   string          `json:"frequency"`
	Rules       json.RawMessage `json:"rules,omitempty"`
	StartAt     *time.Time      `json:"start_at,omitempty"`
	Topic       string          `json:"topic,omitempty"`
	StructureID string          `json:"structure_id,omitempty"`
	Rotation    string          `json:"rotation,omitempty"`
}

// BulkCreateSchedulesRequest creates one schedule per topic, sharing
// the remaining settings.
type BulkCreateSchedulesRequest struct {
	TemplateID string     `json:"template_id"`
	Frequency  string     `json:"frequency"`
	StartAt    *time.Time `json:"start_at,omitempty"`
	Topics     []string   `json:"topics"`
	Rotation   string     `json:"rotation,omitempty"`
}

// CreateScheduleResponse returns the created schedule ID(s).
type CreateScheduleResponse struct {
	ScheduleID string `json:"schedule_id,omitempty"`
	NextRun    string `json:"next_run,omitempty"`
}

// BulkCreateSchedulesResponse lists the created schedule IDs.
type BulkCreateSchedulesResponse struct {
	ScheduleIDs []string `json:"schedule_ids"`
}

// Schedule is the API view of a stored schedule.
type Schedule struct {
	ID         string     `json:"id"`
	TemplateID string     `json:"template_id"`
	Frequency  string     `json:"frequency"`
	NextRun    time.Time  `json:"next_run"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	IsActive   bool       `json:"is_active"`
	Status     string     `json:"status"`
	Topic      string     `json:"topic,omitempty"`
	Rotation   string     `json:"rotation,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RunNowResponse reports a manual generation run.
type RunNowResponse struct {
	HistoryID  int64  `json:"history_id"`
	ArtifactID string `json:"artifact_id,omitempty"`
}

// CreateTemplateRequest creates or updates a generation template.
type CreateTemplateRequest struct {
	Name          string   `json:"name"`
	ContentPrompt string   `json:"content_prompt"`
	TitlePrompt   string   `json:"title_prompt,omitempty"`
	ImagePrompt   string   `json:"image_prompt,omitempty"`
	PostStatus    string   `json:"post_status,omitempty"`
	PostCategory  string   `json:"post_category,omitempty"`
	PostAuthor    string   `json:"post_author,omitempty"`
	GenerateImage bool     `json:"generate_image,omitempty"`
	ImageSource   string   `json:"image_source,omitempty"`
	StockKeywords string   `json:"stock_keywords,omitempty"`
	MediaIDs      []string `json:"media_ids,omitempty"`
}

// CreateTemplateResponse returns the created template ID.
type CreateTemplateResponse struct {
	TemplateID string `json:"template_id"`
}

// Template is the API view of a stored template.
type Template struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContentPrompt string    `json:"content_prompt"`
	TitlePrompt   string    `json:"title_prompt,omitempty"`
	ImagePrompt   string    `json:"image_prompt,omitempty"`
	PostStatus    string    `json:"post_status"`
	PostCategory  string    `json:"post_category,omitempty"`
	PostAuthor    string    `json:"post_author,omitempty"`
	GenerateImage bool      `json:"generate_image"`
	ImageSource   string    `json:"image_source,omitempty"`
	StockKeywords string    `json:"stock_keywords,omitempty"`
	MediaIDs      []string  `json:"media_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// HistoryRecord is the API view of one generation run.
type HistoryRecord struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"uuid"`
	RunType      string     `json:"run_type"`
	Status       string     `json:"status"`
	TemplateID   string     `json:"template_id,omitempty"`
	ScheduleID   string     `json:"schedule_id,omitempty"`
	ArtifactID   string     `json:"artifact_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// HistoryLogEntry is one log line of a run. Input and Output are
// decoded for display.
type HistoryLogEntry struct {
	ID        int64     `json:"id"`
	LogType   string    `json:"log_type"`
	Message   string    `json:"message"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ResilienceStatusResponse snapshots the AI call gate.
type ResilienceStatusResponse struct {
	BreakerState     string `json:"breaker_state"`
	ConsecutiveFails int    `json:"consecutive_failures"`
	WindowRequests   int    `json:"window_requests"`
	WindowLimit      int    `json:"window_limit"`
}

// ResetResilienceRequest selects which mechanism to reset.
type ResetResilienceRequest struct {
	Target string `json:"target"` // breaker, limiter or all
}

// CreateAPIKeyRequest mints a new API key.
type CreateAPIKeyRequest struct {
	Name      string `json:"name"`
	RateLimit int    `json:"rate_limit,omitempty"`
}

// CreateAPIKeyResponse returns the plaintext key exactly once.
type CreateAPIKeyResponse struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}
