package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) GetChatByID(ctx context.Context, chatID string) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SaveChat is conflict-safe: concurrent first messages on the same new
// chat id leave exactly one row, decided by the unique index on chat_id.
func (r *Repo) SaveChat(ctx context.Context, c *Chat) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoNothing: true,
		}).
		Create(c).Error
}

func (r *Repo) DeleteChatByID(ctx context.Context, chatID string) error {
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Delete(&Message{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Delete(&Chat{}).Error
}

func (r *Repo) SaveMessages(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(msgs).Error
}

// ListMessages returns messages in ASC id order (append order).
func (r *Repo) ListMessages(ctx context.Context, chatID string, limit int, beforeID uint64) ([]Message, error) {
	q := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id ASC")

	if limit > 0 {
		q = q.Limit(limit)
	}
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// Title job CRUD

func (r *Repo) CreateTitleJob(ctx context.Context, job *TitleJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetTitleJobByID(ctx context.Context, id string) (*TitleJob, error) {
	var j TitleJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *Repo) MarkTitleJobRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&TitleJob{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkTitleJobSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&TitleJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobSucceeded,
			"error":  nil,
		}).Error
}

func (r *Repo) MarkTitleJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&TitleJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobFailed,
			"error":  errMsg,
		}).Error
}

func (r *Repo) UpdateChatTitle(ctx context.Context, chatID string, title string) error {
	return r.db.WithContext(ctx).Model(&Chat{}).
		Where("chat_id = ?", chatID).
		Update("title", title).Error
}
