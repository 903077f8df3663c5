package tools

import "time"

type Document struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	DocumentID string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	UserID     uint64    `gorm:"index;not null" json:"-"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Kind       string    `gorm:"type:varchar(16);not null;default:text" json:"kind"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

type Suggestion struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SuggestionID  string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	DocumentID    string    `gorm:"type:varchar(36);index;not null" json:"document_id"`
	UserID        uint64    `gorm:"index;not null" json:"-"`
	OriginalText  string    `gorm:"type:text" json:"original_text"`
	SuggestedText string    `gorm:"type:text" json:"suggested_text"`
	Description   string    `gorm:"type:text" json:"description"`
	IsResolved    bool      `gorm:"not null;default:false" json:"is_resolved"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Suggestion) TableName() string { return "suggestions" }
