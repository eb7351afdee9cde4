package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipforge/internal/common"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/httpapi/handlers"
	"github.com/clipforge/clipforge/internal/httpapi/middleware"
)

func NewRouter(cfg config.Config, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", func(c *gin.Context) { common.OK(c, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	// Stateless provider proxy (credential header only, provider error shape)
	api.POST("/chat", h.Chat)
	api.POST("/videos/title", h.Title)
	api.POST("/videos/create", h.CreateVideo)
	api.POST("/videos/remix/:videoId", h.RemixVideo)
	api.GET("/videos/status/:id", h.VideoStatus)
	api.GET("/videos/list", h.ListVideos)
	api.GET("/videos/download/:id", h.DownloadVideo)
	api.POST("/images/generate", h.GenerateImage)

	// Session lifecycle (token issued here, required below)
	api.POST("/sessions", h.CreateSession)

	authed := api.Group("/")
	authed.Use(middleware.SessionRequired(cfg.JWTSecret))
	authed.POST("/messages", h.SendMessage)
	authed.POST("/generations", h.StartGeneration)
	authed.GET("/generations/current", h.CurrentGeneration)
	authed.POST("/remix-reference", h.SelectRemixReference)
	authed.DELETE("/remix-reference", h.ClearRemixReference)
	authed.POST("/conversations", h.SaveConversation)
	authed.POST("/conversations/new", h.NewConversation)
	authed.GET("/conversations", h.ListConversations)
	authed.GET("/conversations/:id", h.GetConversation)
	authed.DELETE("/conversations/:id", h.DeleteConversation)
	authed.GET("/videos/saved", h.ListSavedVideos)

	return r
}
