package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/cuetable/internal/config"
	"github.com/playmatatu/cuetable/internal/game"
	"github.com/playmatatu/cuetable/internal/middleware"
	"github.com/playmatatu/cuetable/internal/ws"
)

// sessionErrorStatus maps session errors to HTTP status codes
func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrSessionEnded):
		return http.StatusGone
	case errors.Is(err, game.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrTooManyBodies):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func lookupSession(c *gin.Context) (*game.PracticeSession, bool) {
	s, err := game.Manager.GetSessionByToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

// CreatePracticeSession racks a new table and returns the session JWT used for commands
func CreatePracticeSession(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DisplayName string `json:"display_name"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		s, err := game.Manager.CreateSession(req.DisplayName)
		if err != nil {
			log.Printf("[PRACTICE] Create failed: %v", err)
			c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		signed, exp, err := middleware.IssueSessionToken(cfg, s.Token)
		if err != nil {
			log.Printf("Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":         s.Token,
			"session_token": signed,
			"expires_at":    exp.Unix(),
			"state":         s.Snapshot(),
		})
	}
}

// GetPracticeSession returns the full state of a table
func GetPracticeSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	}
}

// PracticeShot strikes the primary body
func PracticeShot() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c)
		if !ok {
			return
		}

		var params game.ShotParams
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shot"})
			return
		}

		vel, err := s.Shoot(params)
		if err != nil {
			c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		game.Manager.Touch(s.Token)
		go game.Manager.RecordShot(s, params, vel)

		ws.PracticeHub.BroadcastToSession(s.Token, gin.H{"type": "shot", "velocity": vel})
		c.JSON(http.StatusOK, gin.H{"velocity": vel})
	}
}

// PracticeSpawn adds a body to the table
func PracticeSpawn() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c)
		if !ok {
			return
		}

		var params game.SpawnParams
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "x and y required"})
			return
		}

		body, err := s.Spawn(params)
		if err != nil {
			c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		game.Manager.Touch(s.Token)

		ws.PracticeHub.BroadcastToSession(s.Token, gin.H{"type": "spawned", "body": body})
		c.JSON(http.StatusCreated, body)
	}
}

// PracticeReset re-racks the table
func PracticeReset() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c)
		if !ok {
			return
		}
		if err := s.Reset(); err != nil {
			c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		game.Manager.Touch(s.Token)

		snap := s.Snapshot()
		ws.PracticeHub.BroadcastToSession(s.Token, ws.StateMessage(snap))
		c.JSON(http.StatusOK, snap)
	}
}

// EndPracticeSession closes a table at the player's request
func EndPracticeSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if err := game.Manager.EndSession(token); err != nil {
			c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		ws.PracticeHub.BroadcastToSession(token, gin.H{"type": "session_ended", "token": token})
		ws.PracticeHub.DisconnectSession(token)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
