package tools

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("tools: not found")

type Store interface {
	SaveDocument(ctx context.Context, d *Document) error
	GetDocumentByID(ctx context.Context, documentID string) (*Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	SaveSuggestions(ctx context.Context, s []*Suggestion) error
}

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) SaveDocument(ctx context.Context, d *Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *Repo) GetDocumentByID(ctx context.Context, documentID string) (*Document, error) {
	var d Document
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) UpdateDocument(ctx context.Context, d *Document) error {
	return r.db.WithContext(ctx).Model(&Document{}).
		Where("document_id = ?", d.DocumentID).
		Updates(map[string]any{
			"title":   d.Title,
			"content": d.Content,
		}).Error
}

func (r *Repo) SaveSuggestions(ctx context.Context, s []*Suggestion) error {
	if len(s) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(s).Error
}
