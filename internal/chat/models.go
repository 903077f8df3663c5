package chat

import "time"

type Chat struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ChatID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"chat_id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }

// Message rows are append-only. The numeric primary key is the append
// order within a chat; MessageID is the stable external identifier.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"message_id"`
	ChatID    string    `gorm:"type:varchar(64);index;not null" json:"chat_id"`
	Role      string    `gorm:"type:varchar(16);index;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Reasoning string    `gorm:"type:text" json:"reasoning,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
