package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estatehub/bff/internal/config"
	"estatehub/bff/internal/handler/middleware"
	jwtpkg "estatehub/bff/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	limiter *middleware.RateLimiter,
	sessionHandler *SessionHandler,
	contactHandler *ContactHandler,
	bannerHandler *BannerHandler,
	blogHandler *BlogHandler,
	galleryHandler *GalleryHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/sessions", middleware.RateLimit(limiter), sessionHandler.Create)

		api.GET("/banners", bannerHandler.List)
		api.GET("/blog", blogHandler.List)
		api.GET("/blog/:slug", blogHandler.Get)
		api.GET("/feeds/blog.xml", blogHandler.Feed)

		api.POST("/images/preload", middleware.RateLimit(limiter), galleryHandler.Preload)
		api.GET("/images/status", galleryHandler.Status)
	}

	// Per-visitor routes
	sessions := r.Group("/api/v1/sessions/:session")
	sessions.Use(middleware.Session())
	{
		sessions.GET("/contact", contactHandler.State)
		sessions.GET("/contact/events", contactHandler.Events)
		sessions.POST("/contact/phone", middleware.RateLimit(limiter), contactHandler.RevealPhone)
		sessions.POST("/contact/message", middleware.RateLimit(limiter), contactHandler.SendMessage)

		sessions.POST("/banners/:id/events", bannerHandler.RecordEvent)

		sessions.POST("/gallery/focus", galleryHandler.Focus)
	}

	// Admin routes (JWT + admin check)
	if adminHandler != nil && jwtManager.Enabled() && len(cfg.Admin.UserIDs) > 0 {
		admin := r.Group("/api/v1/admin")
		admin.Use(middleware.JWTAuth(jwtManager))
		admin.Use(middleware.AdminAuth(cfg.Admin.UserIDs))
		{
			admin.GET("/cache", adminHandler.ListSections)
			admin.POST("/cache/sweep", adminHandler.Sweep)
			admin.DELETE("/cache/:namespace/:key", adminHandler.Clear)
		}
	}

	return r
}
