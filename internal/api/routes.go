package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/cuetable/internal/api/handlers"
	"github.com/playmatatu/cuetable/internal/config"
	"github.com/playmatatu/cuetable/internal/middleware"
	"github.com/playmatatu/cuetable/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(db, rdb))

		// Practice tables
		practice := v1.Group("/practice")
		{
			practice.POST("", handlers.CreatePracticeSession(cfg))
			practice.GET("/:token", handlers.GetPracticeSession())
			practice.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket)

			owned := practice.Group("/:token", middleware.SessionAuth(cfg))
			{
				owned.POST("/shot", handlers.PracticeShot())
				owned.POST("/spawn", handlers.PracticeSpawn())
				owned.POST("/reset", handlers.PracticeReset())
				owned.DELETE("", handlers.EndPracticeSession())
			}
		}

		// Operator endpoints
		adm := v1.Group("/admin", middleware.AdminAuth(db))
		{
			adm.GET("/sessions", handlers.ListAdminSessions())
			adm.POST("/sessions/:token/end", handlers.AdminEndSession(db))
			adm.GET("/history", handlers.GetAdminHistory(db))
			adm.GET("/history/:id/events", handlers.GetAdminSessionEvents(db))
			adm.GET("/audit", handlers.GetAdminAuditLogs(db))
			adm.GET("/config", handlers.GetAdminRuntimeConfig(db))
			adm.PUT("/config/:key", handlers.UpdateAdminRuntimeConfig(db))
		}
	}
}
