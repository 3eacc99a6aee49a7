package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/cuetable/internal/game"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartEventSubscriber relays capture, scene_reset and session_expired events
// published by any instance to the viewers connected here.
func StartEventSubscriber(ctx context.Context, hub *Hub) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, game.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		<-ctx.Done()
		pubsub.Close()
	}()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.EventsChannel)
		for msg := range ch {
			relayEvent(hub, msg.Payload)
		}
		log.Printf("[WS] %s subscriber stopped", game.EventsChannel)
	}()
}

func relayEvent(hub *Hub, raw string) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}

	typeStr, _ := payload["type"].(string)
	token, _ := payload["token"].(string)
	if token == "" {
		log.Printf("[WS] event %s without token dropped", typeStr)
		return
	}

	switch typeStr {
	case string(game.EventCapture), string(game.EventSceneReset):
		hub.BroadcastToSession(token, payload)

	case "session_expired":
		hub.BroadcastToSession(token, payload)
		hub.DisconnectSession(token)

	default:
		log.Printf("[WS] unknown event type: %s", typeStr)
	}
}
