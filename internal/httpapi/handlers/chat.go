package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reldane/chatrelay/internal/ai"
	"github.com/reldane/chatrelay/internal/chat"
	"github.com/reldane/chatrelay/internal/common"
	"github.com/reldane/chatrelay/internal/httpapi/middleware"
	"go.uber.org/zap"
)

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

type transcriptMsg struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

type chatReq struct {
	ID                string          `json:"id" binding:"required"`
	Messages          []transcriptMsg `json:"messages" binding:"required"`
	SelectedChatModel string          `json:"selectedChatModel"`
}

// Chat relays a transcript to the selected model and streams the exchange
// back as SSE. Validation failures surface as plain status codes; once
// streaming has started, failures become a single in-band error event.
func (h *Handler) Chat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.SelectedChatModel == "" {
		req.SelectedChatModel = ai.DefaultChatModel
	}

	// Reject bad requests before touching the quota so a 400 never burns
	// allowance.
	if _, err := h.Catalog.Resolve(req.SelectedChatModel); err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "unknown model")
		return
	}
	if len(req.Messages) == 0 || req.Messages[len(req.Messages)-1].Role != ai.RoleUser {
		common.Fail(c, http.StatusBadRequest, 10004, "no user message found")
		return
	}

	if h.Quota != nil {
		allowed, err := h.Quota.Allow(c.Request.Context(), uid, h.Cfg.DailyMessageLimit)
		if err != nil {
			h.Log.Error("quota check", zap.Error(err))
			common.Fail(c, http.StatusInternalServerError, 50003, "internal error")
			return
		}
		if !allowed {
			common.Fail(c, http.StatusTooManyRequests, 42901, "daily message limit reached")
			return
		}
	}

	transcript := make([]ai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		transcript = append(transcript, ai.Message{Role: m.Role, Content: m.Content})
	}

	ctx := c.Request.Context()
	events, errsCh, err := h.ChatSvc.StreamChat(ctx, chat.StreamRequest{
		UserID:     uid,
		ChatID:     req.ID,
		ModelID:    req.SelectedChatModel,
		Transcript: transcript,
	})
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrNoUserMessage):
			common.Fail(c, http.StatusBadRequest, 10004, "no user message found")
		case errors.Is(err, ai.ErrUnknownModel):
			common.Fail(c, http.StatusBadRequest, 10005, "unknown model")
		case errors.Is(err, chat.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 40004, "chat not found")
		default:
			h.Log.Error("start stream", zap.String("chat_id", req.ID), zap.Error(err))
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"flusher not supported\"}\n\n")
		return
	}

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		if event != "" {
			fmt.Fprintf(c.Writer, "event: %s\n", event)
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	// heartbeat ticker (keeps connections alive)
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Both channels are closed by now; a buffered provider
				// error may still be pending.
				var err error
				if errsCh != nil {
					err = <-errsCh
				}
				if err != nil {
					h.Log.Error("provider stream", zap.String("chat_id", req.ID), zap.Error(err))
					writeJSON("error", gin.H{
						"type":    "error",
						"message": "Oops, an error occurred!",
					})
					return
				}
				writeJSON("finish", gin.H{"type": "finish"})
				return
			}
			payload := gin.H{"type": ev.Type}
			if ev.Text != "" {
				payload["delta"] = ev.Text
			}
			if ev.ToolCall != nil {
				payload["tool_call"] = ev.ToolCall
			}
			writeJSON(string(ev.Type), payload)

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			h.Log.Error("provider stream", zap.String("chat_id", req.ID), zap.Error(err))
			writeJSON("error", gin.H{
				"type":    "error",
				"message": "Oops, an error occurred!",
			})
			return

		case <-ticker.C:
			writeJSON("ping", gin.H{
				"type": "ping",
				"ts":   time.Now().Unix(),
			})

		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	chatID := c.Param("chat_id")

	limit, _ := strconv.Atoi(c.Query("limit"))
	var beforeID uint64
	if v := c.Query("before_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			beforeID = n
		}
	}

	msgs, err := h.ChatSvc.ListMessages(c.Request.Context(), uid, chatID, limit, beforeID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40004, "chat not found")
			return
		}
		h.Log.Error("list messages", zap.String("chat_id", chatID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list messages")
		return
	}

	common.Ok(c, gin.H{"messages": msgs})
}

func (h *Handler) DeleteChat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	chatID := c.Param("chat_id")
	if err := h.ChatSvc.DeleteChat(c.Request.Context(), uid, chatID); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40004, "chat not found")
			return
		}
		h.Log.Error("delete chat", zap.String("chat_id", chatID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to delete chat")
		return
	}

	common.Ok(c, gin.H{"deleted": chatID})
}
