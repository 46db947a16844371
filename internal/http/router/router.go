package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commonapp/common-backend/internal/config"
	"github.com/commonapp/common-backend/internal/http/handlers"
	"github.com/commonapp/common-backend/internal/http/middleware"
	"github.com/commonapp/common-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	postHandler *handlers.PostHandler,
	threadHandler *handlers.ThreadHandler,
	reportHandler *handlers.ReportHandler,
	adminHandler *handlers.AdminHandler,
	notificationHandler *handlers.NotificationHandler,
	mediaHandler *handlers.MediaHandler,
	geocodeHandler *handlers.GeocodeHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.Sessions)
	}

	// Public routes. The feed and single-post views need no account;
	// the geocode proxy is rate limited because it fans out upstream.
	api.GET("/posts", postHandler.Feed)
	api.GET("/posts/:id", middleware.UUIDValidator("id"), postHandler.Get)
	api.GET("/ws", wsHandler.Handle)
	api.GET("/users/:id/profile", middleware.UUIDValidator("id"), profileHandler.GetPublic)
	api.GET("/reports/reasons", reportHandler.Reasons)
	api.GET("/geocode", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), geocodeHandler.Search)

	// Protected routes.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.GetOwn)
		protected.PUT("/profile", profileHandler.Update)

		protected.POST("/posts", postHandler.Create)
		protected.GET("/posts/mine", postHandler.ListOwn)
		protected.PUT("/posts/:id", middleware.UUIDValidator("id"), postHandler.Update)
		protected.DELETE("/posts/:id", middleware.UUIDValidator("id"), postHandler.Delete)
		protected.POST("/posts/:id/close", middleware.UUIDValidator("id"), postHandler.Close)
		protected.POST("/posts/:id/interest", middleware.UUIDValidator("id"), threadHandler.ExpressInterest)

		protected.GET("/threads", threadHandler.List)
		protected.GET("/threads/:id", middleware.UUIDValidator("id"), threadHandler.Get)
		protected.POST("/threads/:id/close", middleware.UUIDValidator("id"), threadHandler.Close)
		protected.GET("/threads/:id/messages", middleware.UUIDValidator("id"), threadHandler.ListMessages)
		protected.POST("/threads/:id/messages", middleware.UUIDValidator("id"), threadHandler.SendMessage)

		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports/mine", reportHandler.ListMine)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)

		protected.POST("/media/avatar", mediaHandler.UploadAvatar)
	}

	// Admin routes. The claim check here is a fast path; every
	// moderation operation re-verifies the admin row before acting.
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.AdminRequired())
	{
		admin.GET("/counts", adminHandler.Counts)
		admin.GET("/posts/pending", adminHandler.PendingPosts)
		admin.POST("/posts/:id/approve", middleware.UUIDValidator("id"), adminHandler.ApprovePost)
		admin.POST("/posts/:id/reject", middleware.UUIDValidator("id"), adminHandler.RejectPost)
		admin.POST("/posts/:id/hide", middleware.UUIDValidator("id"), adminHandler.HidePost)
		admin.GET("/reports/pending", adminHandler.PendingReports)
		admin.POST("/reports/:id/dismiss", middleware.UUIDValidator("id"), adminHandler.DismissReport)
		admin.POST("/reports/:id/review", middleware.UUIDValidator("id"), adminHandler.ReviewReport)
	}

	return r
}
