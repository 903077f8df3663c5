package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reldane/chatrelay/internal/common"
	"github.com/reldane/chatrelay/internal/httpapi/handlers"
	"github.com/reldane/chatrelay/internal/httpapi/middleware"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler, jwtSecret string, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)
	r.GET("/models", h.ListModels)

	// users register
	r.POST("/users", h.CreateUser)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(jwtSecret))
	authGroup.GET("/me", h.Me)
	// Chat (JWT required)
	authGroup.POST("/chat", h.Chat)
	authGroup.GET("/chat/:chat_id/messages", h.ListChatMessages)
	authGroup.DELETE("/chat/:chat_id", h.DeleteChat)
	return r
}
