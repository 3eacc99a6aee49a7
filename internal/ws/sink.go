package ws

import "github.com/playmatatu/cuetable/internal/game"

// Sink delivers frame worker output to the viewers of each table.
type Sink struct {
	hub *Hub
}

// NewSink returns a game.FrameSink broadcasting through hub.
func NewSink(hub *Hub) *Sink {
	return &Sink{hub: hub}
}

// SendFrame broadcasts body positions. Collisions and cushion hits are sent as counts only.
func (s *Sink) SendFrame(fr *game.FrameResult) {
	if s.hub.RoomSize(fr.Token) == 0 {
		return
	}
	collisions := 0
	for _, e := range fr.Events {
		if e.Type == game.EventCollision {
			collisions++
		}
	}
	s.hub.BroadcastToSession(fr.Token, map[string]interface{}{
		"type":       "frame",
		"frame":      fr.Frame,
		"bodies":     fr.Bodies,
		"collisions": collisions,
		"cushions":   fr.Cushions,
		"at_rest":    fr.AtRest,
	})
}

// SendEvents broadcasts capture and scene_reset events directly (no Redis).
func (s *Sink) SendEvents(token string, frame uint64, events []game.Event) {
	for _, e := range events {
		s.hub.BroadcastToSession(token, EventMessage(token, frame, e))
	}
}

// SendExpired tells viewers the session was closed and hangs up on them.
func (s *Sink) SendExpired(token string) {
	s.hub.BroadcastToSession(token, ExpiredMessage(token))
	s.hub.DisconnectSession(token)
}

// EventMessage is the wire form of a discrete event, the same shape
// game.PublishEvents puts on the practice_events channel.
func EventMessage(token string, frame uint64, e game.Event) map[string]interface{} {
	return map[string]interface{}{
		"type":      string(e.Type),
		"token":     token,
		"frame":     frame,
		"body_id":   e.BodyID,
		"target_id": e.TargetID,
		"speed":     e.Speed,
	}
}

func ExpiredMessage(token string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "session_expired",
		"token":   token,
		"message": "Session closed after inactivity",
	}
}

// StateMessage wraps a full session snapshot.
func StateMessage(snap game.SessionSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"type":    "state",
		"session": snap,
	}
}
