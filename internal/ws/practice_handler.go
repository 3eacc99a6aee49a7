package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/cuetable/internal/game"
	"github.com/playmatatu/cuetable/internal/middleware"
)

// AimData is the release point of a drag gesture.
type AimData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PracticeHub is the single hub for all practice tables.
var PracticeHub *Hub

var clientSeq uint64

func init() {
	PracticeHub = NewHub()
	go PracticeHub.Run()
}

// HandleWebSocket upgrades a viewer of a practice table. The st query
// parameter must be a session JWT issued for the :token in the path.
func HandleWebSocket(c *gin.Context) {
	sessionToken := c.Param("token")
	st := c.Query("st")
	if sessionToken == "" || st == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and st required"})
		return
	}

	if game.Manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session manager not ready"})
		return
	}
	granted, err := middleware.ParseSessionToken(game.Manager.GetConfig(), st)
	if err != nil || granted != sessionToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid session token"})
		return
	}

	s, err := game.Manager.GetSessionByToken(sessionToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if !s.IsActive() {
		c.JSON(http.StatusGone, gin.H{"error": "session has ended"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:         conn,
		id:           fmt.Sprintf("c%d", atomic.AddUint64(&clientSeq, 1)),
		sessionToken: sessionToken,
		send:         make(chan []byte, 256),
	}
	client.sendJSON(StateMessage(s.Snapshot()))

	PracticeHub.register <- client
	game.Manager.Touch(sessionToken)

	go client.writePump()
	go client.readPump()
}

// readPump reads commands from a practice table viewer.
func (c *Client) readPump() {
	defer func() {
		PracticeHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for client %s: %v", c.id, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		game.Manager.Touch(c.sessionToken)
		c.handleMessage(msg)
	}
}

// handleMessage processes incoming practice table messages.
func (c *Client) handleMessage(msg WSMessage) {
	s, err := game.Manager.GetSessionByToken(c.sessionToken)
	if err != nil {
		c.sendError("Session not found")
		return
	}

	switch msg.Type {
	case "shoot":
		var params game.ShotParams
		if err := json.Unmarshal(msg.Data, &params); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.handleShot(s, params)

	case "aim":
		var data AimData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid aim data")
			return
		}
		p := game.NewVec2(data.X, data.Y)
		c.handleShot(s, game.ShotParams{Aim: &p})

	case "spawn":
		var params game.SpawnParams
		if err := json.Unmarshal(msg.Data, &params); err != nil {
			c.sendError("Invalid spawn data")
			return
		}
		body, err := s.Spawn(params)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		PracticeHub.BroadcastToSession(c.sessionToken, map[string]interface{}{
			"type": "spawned",
			"body": body,
		})

	case "reset":
		if err := s.Reset(); err != nil {
			c.sendError(err.Error())
			return
		}
		PracticeHub.BroadcastToSession(c.sessionToken, StateMessage(s.Snapshot()))

	case "get_state":
		c.sendJSON(StateMessage(s.Snapshot()))

	default:
		c.sendError("Unknown message type")
	}
}

// handleShot strikes the primary body and tells every viewer.
func (c *Client) handleShot(s *game.PracticeSession, params game.ShotParams) {
	vel, err := s.Shoot(params)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	PracticeHub.BroadcastToSession(c.sessionToken, map[string]interface{}{
		"type":     "shot",
		"velocity": vel,
	})
	go game.Manager.RecordShot(s, params, vel)
}
