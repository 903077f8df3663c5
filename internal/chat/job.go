package chat

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// TitleJob asks the worker to replace a chat's locally derived title with
// one generated by the title model. A failed job leaves the derived title
// in place.
type TitleJob struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	ChatID string `gorm:"type:varchar(64);index;not null"`
	UserID uint64 `gorm:"index;not null"`

	// Prompt is the first user message the title is derived from.
	Prompt string `gorm:"type:text;not null"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TitleJob) TableName() string { return "title_jobs" }
