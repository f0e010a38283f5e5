package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/middleware"
	"github.com/xxxsen/docchat/internal/pkg/response"
)

type RouterDeps struct {
	Auth            *AuthHandler
	Documents       *DocumentHandler
	Chat            *ChatHandler
	JWTSecret       []byte
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "healthy"})
	})
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	limited := authGroup.Group("")
	limited.Use(middleware.RateLimit(deps.RateLimitWindow))
	limited.POST("/documents", deps.Documents.Upload)
	limited.POST("/chat/ask", deps.Chat.Ask)

	authGroup.GET("/auth/me", deps.Auth.Me)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.DELETE("/documents/:source", deps.Documents.Delete)
	authGroup.GET("/chat/history", deps.Chat.History)
	authGroup.POST("/chat/history/delete", deps.Chat.DeleteHistory)
}
