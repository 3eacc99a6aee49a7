package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/cuetable/internal/game"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status. Missing backends are reported
// as "disabled"; the service runs without them.
func HealthCheck(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "disabled"
		if db != nil {
			dbStatus = "ok"
			if err := db.PingContext(ctx); err != nil {
				dbStatus = "error"
			}
		}
		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			}
		}

		active := 0
		if game.Manager != nil {
			active = game.Manager.ActiveCount()
		}

		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"service":         "cuetable-api",
			"version":         version,
			"uptime":          time.Since(startTime).String(),
			"database":        dbStatus,
			"redis":           redisStatus,
			"active_sessions": active,
		})
	}
}
