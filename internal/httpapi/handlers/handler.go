package handlers

import (
	"context"

	"github.com/reldane/chatrelay/internal/ai"
	"github.com/reldane/chatrelay/internal/chat"
	"github.com/reldane/chatrelay/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuotaStore gates requests against the per-user daily message allowance.
type QuotaStore interface {
	Allow(ctx context.Context, userID uint64, limit int) (bool, error)
}

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	Quota   QuotaStore // nil disables the daily quota
	Catalog *ai.Catalog
	ChatSvc *chat.Service
	Log     *zap.Logger
}

func NewHandler(db *gorm.DB, cfg config.Config, quota QuotaStore, catalog *ai.Catalog, chatSvc *chat.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Quota:   quota,
		Catalog: catalog,
		ChatSvc: chatSvc,
		Log:     log,
	}
}
