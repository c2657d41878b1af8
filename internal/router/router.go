package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/tubeview/internal/handler"
	"github.com/user/tubeview/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	secret := h.Config.AppSecret
	requireAuth := middleware.RequireAuth(secret)

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(secret))

	// ==================== 账号 ====================
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
	api.GET("/users/me", requireAuth, h.Me)
	api.GET("/users/:id/videos", h.ListUserVideos)

	// ==================== 视频 ====================
	videos := api.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.POST("", requireAuth, h.CreateVideo)
		videos.GET("/:id", h.GetVideo)
		videos.DELETE("/:id", requireAuth, h.DeleteVideo)
		videos.GET("/:id/views", h.ViewCount)
		videos.GET("/:id/resume", requireAuth, h.Resume)
		videos.GET("/:id/likes", h.Likes)
		videos.PUT("/:id/rating", requireAuth, h.Rate)
		videos.DELETE("/:id/rating", requireAuth, h.Unrate)
		videos.GET("/:id/comments", h.Comments)
		videos.POST("/:id/comments", requireAuth, h.AddComment)
	}

	// ==================== 观看记录 ====================
	api.POST("/views", h.RecordView)
	api.DELETE("/views/:video_id", requireAuth, h.RemoveView)

	api.DELETE("/comments/:id", requireAuth, h.DeleteComment)

	// ==================== 订阅 ====================
	api.POST("/subscriptions/:owner_id", requireAuth, h.Subscribe)
	api.DELETE("/subscriptions/:owner_id", requireAuth, h.Unsubscribe)

	// ==================== 我的 ====================
	me := api.Group("/me")
	me.Use(requireAuth)
	{
		me.GET("/viewed", h.ListViewed)
		me.GET("/subscriptions", h.Subscriptions)
		me.GET("/subscribers", h.Subscribers)
	}
}
