package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/shared/middleware"
	"bookcatalog-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Forwarding headers are honoured only from configured proxies
	if err := router.SetTrustedProxies(c.Config.App.TrustedProxies); err != nil {
		log.Error().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
		middleware.ClientIPMiddleware(),
		c.Metrics.Handler(),
	)

	// Operational endpoints stay outside the rate limiter
	router.GET("/health", healthCheckHandler(c))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(c.Limiter, c.Metrics.OnRateLimited))
	{
		setupAuthRoutes(v1, c)
		setupAuthorRoutes(v1, c)
		setupBookRoutes(v1, c)
		setupImportRoutes(v1, c)
		setupExportRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/token", c.UserHandler.Token)
		auth.GET("/me", middleware.AuthMiddleware(c.JWTManager), c.UserHandler.Me)
	}
}

// ========================================
// AUTHOR ROUTES
// ========================================
func setupAuthorRoutes(v1 *gin.RouterGroup, c *container.Container) {
	authors := v1.Group("/authors")
	{
		authors.GET("", c.AuthorHandler.List)
		authors.GET("/:id", c.AuthorHandler.GetByID)
		authors.GET("/:id/books", c.BookHandler.ListByAuthor)

		protected := authors.Group("")
		protected.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			protected.POST("", c.AuthorHandler.Create)
			protected.PUT("/:id", c.AuthorHandler.Update)
			protected.DELETE("/:id", c.AuthorHandler.Delete)
		}
	}
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	books := v1.Group("/books")
	{
		books.GET("", c.BookHandler.List)
		books.GET("/recommend", c.BookHandler.Recommend)
		books.GET("/:id", c.BookHandler.GetByID)

		protected := books.Group("")
		protected.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			protected.POST("", c.BookHandler.Create)
			protected.PUT("/:id", c.BookHandler.Update)
			protected.DELETE("/:id", c.BookHandler.Delete)
		}
	}
}

// ========================================
// IMPORT / EXPORT ROUTES
// ========================================
func setupImportRoutes(v1 *gin.RouterGroup, c *container.Container) {
	imports := v1.Group("/imports")
	imports.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		imports.POST("/csv", c.TransferHandler.ImportCSV)
		imports.POST("/json", c.TransferHandler.ImportJSON)
		imports.GET("/jobs/:id", c.TransferHandler.GetJob)
	}
}

func setupExportRoutes(v1 *gin.RouterGroup, c *container.Container) {
	exports := v1.Group("/exports")
	{
		exports.GET("/csv", c.TransferHandler.ExportCSV)
		exports.GET("/json", c.TransferHandler.ExportJSON)
		exports.GET("/xlsx", c.TransferHandler.ExportXLSX)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else if err := pingWithTimeout(c.Request.Context(), appCtx.DB.HealthCheck); err != nil {
			dbStatus = fmt.Sprintf("error: %v", err)
			health["status"] = "degraded"
		}

		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else if err := pingWithTimeout(c.Request.Context(), appCtx.Cache.Ping); err != nil {
			redisStatus = fmt.Sprintf("error: %v", err)
		}

		storageStatus := "disabled"
		if appCtx.Storage != nil {
			storageStatus = "ok"
			if err := pingWithTimeout(c.Request.Context(), appCtx.Storage.Ping); err != nil {
				storageStatus = fmt.Sprintf("error: %v", err)
			}
		}

		services := gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		}
		if appCtx.DB != nil && appCtx.DB.Pool != nil {
			if stats, err := appCtx.DB.Stats(); err == nil {
				services["database_pool"] = stats
			}
		}
		health["services"] = services

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

func pingWithTimeout(parent context.Context, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()
	return ping(ctx)
}
