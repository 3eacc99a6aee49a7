package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/cuetable/internal/admin"
	"github.com/playmatatu/cuetable/internal/game"
	"github.com/playmatatu/cuetable/internal/models"
	"github.com/playmatatu/cuetable/internal/ws"
)

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 25
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type sessionSummary struct {
	ID           string    `json:"id"`
	Token        string    `json:"token"`
	DisplayName  string    `json:"display_name"`
	Frame        uint64    `json:"frame"`
	Shots        int       `json:"shots"`
	Captures     int       `json:"captures"`
	Resets       int       `json:"resets"`
	Bodies       int       `json:"bodies"`
	Viewers      int       `json:"viewers"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// ListAdminSessions returns every active table on this instance
func ListAdminSessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		active := game.Manager.ActiveSessions()
		out := make([]sessionSummary, 0, len(active))
		for _, s := range active {
			snap := s.Snapshot()
			out = append(out, sessionSummary{
				ID:           snap.ID,
				Token:        snap.Token,
				DisplayName:  snap.DisplayName,
				Frame:        snap.Frame,
				Shots:        snap.Shots,
				Captures:     snap.Captures,
				Resets:       snap.Resets,
				Bodies:       len(snap.Bodies),
				Viewers:      ws.PracticeHub.RoomSize(snap.Token),
				CreatedAt:    snap.CreatedAt,
				LastActivity: snap.LastActivity,
			})
		}

		c.Header("X-Session-Count", strconv.Itoa(len(out)))
		c.JSON(http.StatusOK, gin.H{"sessions": out, "total": len(out)})
	}
}

// AdminEndSession force-closes a table
func AdminEndSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.GetString("admin_phone")
		token := c.Param("token")
		route := "/api/v1/admin/sessions/" + token + "/end"

		if err := game.Manager.EndSession(token); err != nil {
			admin.LogAdminAction(db, phone, c.ClientIP(), route, "end_session", map[string]interface{}{"token": token, "error": err.Error()}, false)
			c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		ws.PracticeHub.BroadcastToSession(token, gin.H{"type": "session_ended", "token": token, "message": "Session closed by an operator"})
		ws.PracticeHub.DisconnectSession(token)

		admin.LogAdminAction(db, phone, c.ClientIP(), route, "end_session", map[string]interface{}{"token": token}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetAdminAuditLogs returns paginated audit log entries
func GetAdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		logs, total, err := admin.GetAdminAuditLogs(db, c.DefaultQuery("admin_phone", ""), limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total, "limit": limit, "offset": offset})
	}
}

// GetAdminHistory returns persisted sessions, newest first
func GetAdminHistory(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		status := c.DefaultQuery("status", "")

		var rows []struct {
			models.PracticeSession
			TotalCount int `db:"total_count"`
		}
		err := db.Select(&rows, `
			SELECT id, token, display_name, status, shots, captures, resets, frames, created_at, ended_at,
				COUNT(*) OVER() AS total_count
			FROM practice_sessions
			WHERE ($1 = '' OR status = $1)
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, status, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch session history: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
			return
		}

		sessions := make([]models.PracticeSession, len(rows))
		total := 0
		for i, r := range rows {
			sessions[i] = r.PracticeSession
			total = r.TotalCount
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": total, "limit": limit, "offset": offset})
	}
}

// GetAdminSessionEvents returns the recorded shots, captures and resets of one session
func GetAdminSessionEvents(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}

		var session models.PracticeSession
		err = db.Get(&session, `SELECT id, token, display_name, status, shots, captures, resets, frames, created_at, ended_at FROM practice_sessions WHERE id=$1`, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch session %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
			return
		}

		var events []models.PracticeEvent
		err = db.Select(&events, `
			SELECT id, session_id, event_type, body_id, target_id, speed, frame, details, created_at
			FROM practice_events WHERE session_id=$1 ORDER BY frame, id
		`, id)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch events for session %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"session": session, "events": events})
	}
}

// GetAdminRuntimeConfig returns all runtime config entries
func GetAdminRuntimeConfig(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		configs, err := admin.GetAllRuntimeConfig(db)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch runtime config: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch config"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"configs": configs})
	}
}

// UpdateAdminRuntimeConfig updates a single runtime config value and applies it.
// Tables already running keep their physics; new tables use the new values.
func UpdateAdminRuntimeConfig(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.GetString("admin_phone")
		key := c.Param("key")
		route := "/api/v1/admin/config/" + key

		var req struct {
			Value string `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
			return
		}

		if err := admin.UpdateRuntimeConfigValue(db, key, req.Value, phone); err != nil {
			log.Printf("[ADMIN] Failed to update config %s: %v", key, err)
			admin.LogAdminAction(db, phone, c.ClientIP(), route, "update_config", map[string]interface{}{"key": key, "value": req.Value}, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		next := *game.Manager.GetConfig()
		if err := admin.ApplyRuntimeConfigToConfig(db, &next); err != nil {
			log.Printf("[ADMIN] Warning: failed to apply runtime config: %v", err)
		} else {
			game.Manager.ApplyConfig(&next)
		}

		admin.LogAdminAction(db, phone, c.ClientIP(), route, "update_config", map[string]interface{}{"key": key, "value": req.Value}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
