// Package store contains the database layer for postforge.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Schedule represents a recurring or one-time generation work item.
// NextRun is the claim target: advancing it before doing the work is
// what locks the schedule against concurrent pollers.
type Schedule struct {
	ID          uuid.UUID
	TemplateID  uuid.UUID
	Frequency   string
	Rules       json.RawMessage // optional rule set for "custom" frequency
	NextRun     time.Time
	LastRun     *time.Time
	IsActive    bool
	Status      ScheduleStatus
	Topic       *string // overrides the template topic for this schedule
	StructureID *uuid.UUID
	Rotation    string // structure rotation pattern, empty for fixed/default
	CreatedAt   time.Time
}

// ScheduleStatus represents the lifecycle state of a schedule.
type ScheduleStatus string

const (
	ScheduleStatusActive ScheduleStatus = "active"
	ScheduleStatusFailed ScheduleStatus = "failed"
)

// Template is a named generation profile: prompt fragments plus target
// post settings and the featured image policy.
type Template struct {
	ID            uuid.UUID
	Name          string
	ContentPrompt string
	TitlePrompt   string
	ImagePrompt   string
	PostStatus    string
	PostCategory  string
	PostAuthor    string
	GenerateImage bool
	ImageSource   string // ai_prompt, stock_photo or media_library
	StockKeywords string
	MediaIDs      []string
	CreatedAt     time.Time
}

// Structure is a reusable article outline assembled from named sections.
// Weight biases selection when a schedule rotates structures.
type Structure struct {
	ID        uuid.UUID
	Name      string
	Sections  json.RawMessage
	Weight    int
	IsActive  bool
	IsDefault bool
	CreatedAt time.Time
}

// HistoryRecord is the audit record for one generation run.
type HistoryRecord struct {
	ID           int64
	UUID         uuid.UUID
	RunType      string
	Status       HistoryStatus
	TemplateID   *uuid.UUID
	ScheduleID   *uuid.UUID
	ArtifactID   *string
	ErrorMessage *string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// HistoryStatus represents the state of a generation run.
type HistoryStatus string

const (
	HistoryStatusProcessing HistoryStatus = "processing"
	HistoryStatusCompleted  HistoryStatus = "completed"
	HistoryStatusFailed     HistoryStatus = "failed"
)

// HistoryLogEntry is a single append-only log line within a run.
type HistoryLogEntry struct {
	ID        int64
	HistoryID int64
	LogType   string
	Message   string
	Input     *string
	Output    *string
	Context   json.RawMessage
	CreatedAt time.Time
}

// MediaItem is a media-library asset usable as a featured image.
type MediaItem struct {
	ID        string
	URL       string
	AltText   string
	CreatedAt time.Time
}

// APIKey authenticates an operator or integration against the controller.
type APIKey struct {
	ID        uuid.UUID
	Name      string
	KeyHash   string
	RateLimit int // requests per second, 0 means unlimited
	CreatedAt time.Time
}
