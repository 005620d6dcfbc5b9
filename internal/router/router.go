package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/handler"
	"github.com/stemsi/exstem-cbt/internal/middleware"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Candidate *handler.CandidateHandler
	Exam      *handler.ExamHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the rate limiter's background sweep.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", middleware.NoStore(), handlers.System.Health)

	// 30 token requests / attempt starts per minute per IP.
	limiter := middleware.NewRateLimiter(ctx, 30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(limiter.Middleware())
	{
		auth.POST("/anonymous", handlers.Auth.Anonymous)
	}

	// ─── 2. Candidate Group (JWT) ──────────────────────────────────────
	candidate := router.Group("/api/v1/candidate")
	candidate.Use(middleware.RequireCandidateJWT(authService), middleware.NoStore())
	{
		candidate.GET("/profile", handlers.Candidate.GetProfile)
		candidate.PUT("/profile", handlers.Candidate.UpdateProfile)
		candidate.GET("/results", handlers.Candidate.ListResults)
	}

	// ─── 3. Exam Group (JWT) ───────────────────────────────────────────
	examAPI := router.Group("/api/v1/exam")
	examAPI.GET("/departments", middleware.CacheControl(300), handlers.Exam.ListDepartments)

	attempts := examAPI.Group("/attempts")
	attempts.Use(middleware.RequireCandidateJWT(authService), middleware.NoStore())
	{
		attempts.POST("", limiter.Middleware(), handlers.Exam.StartAttempt)
		attempts.GET("/:id", handlers.Exam.GetAttempt)
		attempts.PUT("/:id/answers", handlers.Exam.SaveAnswer)
		attempts.POST("/:id/navigate", handlers.Exam.Navigate)
		attempts.POST("/:id/jump", handlers.Exam.Jump)
		attempts.POST("/:id/submit", handlers.Exam.Submit)
		attempts.GET("/:id/result", handlers.Exam.GetResult)
		attempts.GET("/:id/report", handlers.Exam.GetReport)
	}

	// ─── 4. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/exam/attempts/:id/stream", handlers.WS.AttemptStream)
	}

	return router
}
