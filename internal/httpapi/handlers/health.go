package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/reldane/chatrelay/internal/common"
)

func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{"pong": true})
}

// ListModels returns the static model catalog for presentation.
func (h *Handler) ListModels(c *gin.Context) {
	common.Ok(c, gin.H{"models": h.Catalog.List()})
}
