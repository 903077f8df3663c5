package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/reldane/chatrelay/internal/ai"
	"github.com/reldane/chatrelay/internal/auth"
	"github.com/reldane/chatrelay/internal/chat"
	"github.com/reldane/chatrelay/internal/config"
	"github.com/reldane/chatrelay/internal/httpapi"
	"github.com/reldane/chatrelay/internal/httpapi/handlers"
	"github.com/reldane/chatrelay/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type cannedProvider struct {
	text string
	err  error
}

func (p *cannedProvider) Chat(ctx context.Context, call ai.Call) (ai.Message, error) {
	_ = ctx
	_ = call
	return ai.Message{Role: ai.RoleAssistant, Content: p.text}, p.err
}

func (p *cannedProvider) StreamChat(ctx context.Context, call ai.Call) (<-chan ai.StreamEvent, <-chan error) {
	_ = ctx
	_ = call
	events := make(chan ai.StreamEvent, 8)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(events)
		for _, word := range strings.SplitAfter(p.text, " ") {
			if word == "" {
				continue
			}
			events <- ai.StreamEvent{Type: ai.EventText, Text: word}
		}
		if p.err != nil {
			errs <- p.err
		}
	}()
	return events, errs
}

// fakeQuota grants a fixed number of messages and counts consumption.
type fakeQuota struct {
	allowance int
	calls     int
}

func (q *fakeQuota) Allow(ctx context.Context, userID uint64, limit int) (bool, error) {
	_ = ctx
	_ = userID
	_ = limit
	q.calls++
	return q.calls <= q.allowance, nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    config.Config
}

func newTestEnv(t *testing.T, prov *cannedProvider) *testEnv {
	t.Helper()
	return newTestEnvWithQuota(t, prov, nil)
}

func newTestEnvWithQuota(t *testing.T, prov *cannedProvider, quota handlers.QuotaStore) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &chat.Chat{}, &chat.Message{}, &chat.TitleJob{},
	))

	cfg := config.Config{JWTSecret: "test-secret", DailyMessageLimit: 100}

	reg := ai.NewRegistry()
	reg.Register("fake", func(model string) (ai.Provider, error) {
		_ = model
		return prov, nil
	})
	catalog := ai.NewCatalog(ai.ChatModelConfig{
		ID:       ai.DefaultChatModel,
		Name:     "Fake",
		Provider: "fake",
		Model:    "default",
		Kind:     ai.KindStructured,
		Tier:     ai.TierSmall,
	})

	svc := chat.NewService(chat.NewRepo(db), reg, catalog, nil, nil, nil)
	h := handlers.NewHandler(db, cfg, quota, catalog, svc, nil)
	return &testEnv{
		router: httpapi.NewRouter(h, cfg.JWTSecret, nil),
		db:     db,
		cfg:    cfg,
	}
}

func (e *testEnv) token(t *testing.T, userID uint64) string {
	t.Helper()
	tok, err := auth.SignJWT(userID, e.cfg.JWTSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) seedUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	u := &models.User{Email: "a@example.com", Username: "testuser123", PasswordHash: hash}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func postJSON(t *testing.T, r *gin.Engine, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatEndpoint_StreamsAndPersists(t *testing.T) {
	env := newTestEnv(t, &cannedProvider{text: "hello from the model"})
	u := env.seedUser(t)
	token := env.token(t, u.ID)

	w := postJSON(t, env.router, "/chat", token, gin.H{
		"id": "chat-e2e",
		"messages": []gin.H{
			{"role": "user", "content": "say hi"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	require.Contains(t, body, "event: text-delta")
	require.Contains(t, body, "event: finish")
	require.NotContains(t, body, "event: error")

	// reassemble the streamed text from the data lines
	var streamed string
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var payload struct {
			Type  string `json:"type"`
			Delta string `json:"delta"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload))
		if payload.Type == "text-delta" {
			streamed += payload.Delta
		}
	}
	require.Equal(t, "hello from the model", streamed)

	// history is durable and ordered
	req := httptest.NewRequest(http.MethodGet, "/chat/chat-e2e/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	hw := httptest.NewRecorder()
	env.router.ServeHTTP(hw, req)
	require.Equal(t, http.StatusOK, hw.Code)

	var resp struct {
		Data struct {
			Messages []chat.Message `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(hw.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Messages, 2)
	require.Equal(t, "user", resp.Data.Messages[0].Role)
	require.Equal(t, "say hi", resp.Data.Messages[0].Content)
	require.Equal(t, "assistant", resp.Data.Messages[1].Role)
	require.Equal(t, "hello from the model", resp.Data.Messages[1].Content)
}

func TestChatEndpoint_ProviderFailureEmitsGenericError(t *testing.T) {
	env := newTestEnv(t, &cannedProvider{text: "partial ", err: context.DeadlineExceeded})
	u := env.seedUser(t)
	token := env.token(t, u.ID)

	w := postJSON(t, env.router, "/chat", token, gin.H{
		"id": "chat-fail",
		"messages": []gin.H{
			{"role": "user", "content": "hi"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	require.Contains(t, body, "event: error")
	require.Contains(t, body, "Oops, an error occurred!")
	// the raw provider error never reaches the client
	require.NotContains(t, body, "deadline")
}

func TestChatEndpoint_Validation(t *testing.T) {
	env := newTestEnv(t, &cannedProvider{text: "ok"})
	u := env.seedUser(t)
	token := env.token(t, u.ID)

	// no token
	w := postJSON(t, env.router, "/chat", "", gin.H{
		"id":       "c",
		"messages": []gin.H{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// unknown model
	w = postJSON(t, env.router, "/chat", token, gin.H{
		"id":                "c",
		"messages":          []gin.H{{"role": "user", "content": "hi"}},
		"selectedChatModel": "no-such-model",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// transcript not ending in a user message
	w = postJSON(t, env.router, "/chat", token, gin.H{
		"id":       "c",
		"messages": []gin.H{{"role": "assistant", "content": "hi"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoint_QuotaExceededReturns429(t *testing.T) {
	quota := &fakeQuota{allowance: 0}
	env := newTestEnvWithQuota(t, &cannedProvider{text: "never sent"}, quota)
	u := env.seedUser(t)
	token := env.token(t, u.ID)

	w := postJSON(t, env.router, "/chat", token, gin.H{
		"id":       "chat-quota",
		"messages": []gin.H{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// nothing was persisted
	var chats, msgs int64
	require.NoError(t, env.db.Model(&chat.Chat{}).Count(&chats).Error)
	require.NoError(t, env.db.Model(&chat.Message{}).Count(&msgs).Error)
	require.Zero(t, chats)
	require.Zero(t, msgs)
}

func TestChatEndpoint_BadRequestDoesNotConsumeQuota(t *testing.T) {
	quota := &fakeQuota{allowance: 1}
	env := newTestEnvWithQuota(t, &cannedProvider{text: "reply"}, quota)
	u := env.seedUser(t)
	token := env.token(t, u.ID)

	// unknown model and assistant-last transcript fail before the quota
	w := postJSON(t, env.router, "/chat", token, gin.H{
		"id":                "c",
		"messages":          []gin.H{{"role": "user", "content": "hi"}},
		"selectedChatModel": "no-such-model",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, env.router, "/chat", token, gin.H{
		"id":       "c",
		"messages": []gin.H{{"role": "assistant", "content": "hi"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, quota.calls)

	// the single allowed message still goes through
	w = postJSON(t, env.router, "/chat", token, gin.H{
		"id":       "c",
		"messages": []gin.H{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, quota.calls)
}

func TestChatEndpoint_DeleteChat(t *testing.T) {
	env := newTestEnv(t, &cannedProvider{text: "reply"})
	u := env.seedUser(t)
	token := env.token(t, u.ID)

	w := postJSON(t, env.router, "/chat", token, gin.H{
		"id":       "chat-del",
		"messages": []gin.H{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/chat/chat-del", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	dw := httptest.NewRecorder()
	env.router.ServeHTTP(dw, req)
	require.Equal(t, http.StatusOK, dw.Code)

	// gone now
	req = httptest.NewRequest(http.MethodGet, "/chat/chat-del/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	gw := httptest.NewRecorder()
	env.router.ServeHTTP(gw, req)
	require.Equal(t, http.StatusNotFound, gw.Code)
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv(t, &cannedProvider{text: "ok"})

	// register
	w := postJSON(t, env.router, "/users", "", gin.H{
		"email":    "new@example.com",
		"password": "longenough1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		Data struct {
			Token string `json:"token"`
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.Token)
	require.Equal(t, "new@example.com", created.Data.Email)

	// login with the right and wrong password
	w = postJSON(t, env.router, "/login", "", gin.H{
		"email":    "new@example.com",
		"password": "longenough1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, env.router, "/login", "", gin.H{
		"email":    "new@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// /me with the issued token
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+created.Data.Token)
	mw := httptest.NewRecorder()
	env.router.ServeHTTP(mw, req)
	require.Equal(t, http.StatusOK, mw.Code)
	require.Contains(t, mw.Body.String(), "new@example.com")
}

func TestModelsEndpoint(t *testing.T) {
	env := newTestEnv(t, &cannedProvider{text: "ok"})

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), ai.DefaultChatModel)
}
