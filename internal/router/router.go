package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/handler"
	"github.com/stemsi/exprep-backend/internal/middleware"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Bank      *handler.BankHandler
	Session   *handler.SessionHandler
	Flashcard *handler.FlashcardHandler
	Progress  *handler.ProgressHandler
	Setting   *handler.SettingHandler
	Sync      *handler.SyncHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background sweeps of the rate limiters.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.HeaderLearnerID}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", middleware.HeaderLearnerID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	router.GET("/health", middleware.NoStore(), handlers.System.Health)

	// ─── 0. Public Group (No Identity) ─────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.CacheControl(300))
	{
		publicAPI.GET("/bank/stats", handlers.Bank.Catalog)
	}

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(ctx, 30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	authAPI.Use(authLimiter.Middleware(), middleware.NoStore())
	{
		authAPI.POST("/register", handlers.Auth.Register)
		authAPI.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		authAPI.GET("/me", middleware.OptionalAuth(auth), middleware.RequireAccount(), handlers.Auth.Me)
		authAPI.POST("/logout", middleware.OptionalAuth(auth), middleware.RequireAccount(), handlers.Auth.Logout)
	}

	// Per-learner limiter for everything a learner does (600 requests per minute).
	learnerLimiter := middleware.NewRateLimiter(ctx, 600, time.Minute).KeyByLearner()

	// ─── 2. Learner Group (Account Or Anonymous Learner ID) ────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.OptionalAuth(auth),
		learnerLimiter.Middleware(),
		middleware.NoStore(),
	)
	{
		api.GET("/settings", handlers.Setting.GetSettings)
		api.PATCH("/settings", handlers.Setting.UpdateSettings)

		bank := api.Group("/bank")
		{
			bank.GET("", handlers.Bank.Summary)
			bank.GET("/versions", handlers.Bank.Versions)
			bank.GET("/custom", handlers.Bank.ListCustom)
			bank.PUT("/custom", handlers.Bank.UpsertCustom)
			bank.POST("/custom/import", handlers.Bank.ImportCustom)
			bank.DELETE("/custom/:question_id", handlers.Bank.DeleteCustom)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("/exam", handlers.Session.StartExam)
			sessions.POST("/practice", handlers.Session.StartPractice)
			sessions.GET("/:id", handlers.Session.GetSession)
			sessions.POST("/:id/submit", handlers.Session.Submit)
			sessions.DELETE("/:id", handlers.Session.Abandon)
		}

		flashcards := api.Group("/flashcards")
		{
			flashcards.GET("/due", handlers.Flashcard.Due)
			flashcards.GET("/stats", handlers.Flashcard.Stats)
			flashcards.POST("/:question_id/rate", handlers.Flashcard.Rate)
			flashcards.DELETE("/:question_id", handlers.Flashcard.Reset)
			flashcards.DELETE("", handlers.Flashcard.ResetAll)
		}

		progress := api.Group("/progress")
		{
			progress.GET("/dashboard", handlers.Progress.Dashboard)
			progress.GET("/analytics", handlers.Progress.Analytics)
			progress.GET("/history", handlers.Progress.History)
			progress.DELETE("", handlers.Progress.Wipe)
		}

		api.GET("/sync/status", handlers.Sync.Status)
	}

	// ─── 3. Instructor Group (Account + Role) ──────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(
		middleware.OptionalAuth(auth),
		middleware.RequireAccount(),
		middleware.RequireRole(model.RoleInstructor, model.RoleAdmin),
		middleware.NoStore(),
	)
	{
		instructorAPI.POST("/bank/versions", handlers.Bank.Publish)
	}

	// ─── 4. Admin Group ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.OptionalAuth(auth),
		middleware.RequireAccount(),
		middleware.RequireRole(model.RoleAdmin),
	)
	{
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 5. WebSocket Group (Token Or Learner ID In Query) ─────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSIdentity(auth))
	{
		ws.GET("/sync/stream", handlers.Sync.Stream)
	}

	return router
}
