package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pageturn/backend/internal/auth"
	"github.com/pageturn/backend/internal/cache"
	"github.com/pageturn/backend/internal/comments"
	"github.com/pageturn/backend/internal/config"
	"github.com/pageturn/backend/internal/database"
	"github.com/pageturn/backend/internal/engagement"
	"github.com/pageturn/backend/internal/handlers"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/middleware"
	"github.com/pageturn/backend/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; system environment wins in production
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("pageturn server starting", zap.String("environment", cfg.Environment))

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("failed to initialize database", err)
	}
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("failed to run migrations", err)
	}
	logger.Log.Info("database connected")

	// Redis backs the view dedup counter and the rate limiter
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.FatalWithFields("failed to connect to Redis", err)
	}
	defer redisClient.Close()

	// WebSocket fan-out
	wsHub := websocket.NewHub()
	wsHandler := websocket.NewHandler(wsHub, cfg.JWTSecret, cfg.CORSOrigins)
	go wsHub.Run()

	// Services
	authService := auth.NewService(database.DB, cfg.JWTSecret)
	engagementStore := engagement.NewStore(database.DB, redisClient, wsHub, cfg.ViewWindow)
	commentService := comments.NewService(database.DB)

	h := handlers.NewHandlers(database.DB, engagementStore, commentService, wsHub)
	authHandlers := handlers.NewAuthHandlers(authService)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimitMiddleware(cfg.RateLimitMax, cfg.RateLimitWindow))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandlers.Register)
			authGroup.POST("/login", authHandlers.Login)
			authGroup.GET("/me", authService.Middleware(), authHandlers.Me)
		}

		articles := api.Group("/articles")
		{
			articles.GET("", h.ListArticles)
			articles.GET("/:id", h.GetArticle)
			articles.GET("/:id/comments", h.GetComments)
			articles.GET("/:id/comments/count", h.GetCommentCount)

			authed := articles.Group("")
			authed.Use(authService.Middleware())
			{
				authed.POST("", h.CreateArticle)
				authed.DELETE("/:id", h.DeleteArticle)
				authed.POST("/:id/view", h.RecordView)
				authed.POST("/:id/like", h.ToggleLike)
				authed.POST("/:id/bookmark", h.ToggleBookmark)
				authed.POST("/:id/comments", h.CreateComment)
				authed.POST("/:id/comments/:commentId/like", h.LikeComment)
				authed.DELETE("/:id/comments/:commentId", h.DeleteComment)
			}
		}

		analytics := api.Group("/analytics")
		{
			analytics.POST("/track", h.TrackEvent)
			analytics.POST("/track/batch", h.TrackEventBatch)
		}

		api.GET("/ws/stats", h.WebSocketStats)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("server shutdown error", err)
	}
	if err := wsHub.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("websocket hub shutdown error", err)
	}

	logger.Log.Info("shutdown complete")
}
