package game

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const idleSetKey = "practice_idle"

func lastActiveKey(token string) string {
	return "practice_last_active:" + token
}

// Touch records player activity on a session and pushes its idle deadline back.
func (sm *SessionManager) Touch(token string) {
	sm.mu.RLock()
	s, ok := sm.sessions[token]
	timeout := sm.config.IdleTimeoutSeconds
	sm.mu.RUnlock()
	if ok {
		s.Touch()
	}

	if sm.rdb == nil || timeout <= 0 {
		return
	}
	ctx := context.Background()
	now := time.Now().Unix()
	sm.rdb.Set(ctx, lastActiveKey(token), fmt.Sprintf("%d", now), 0)
	sm.rdb.ZAdd(ctx, idleSetKey, redis.Z{Score: float64(now + int64(timeout)), Member: token})
}

func (sm *SessionManager) clearIdle(token string) {
	if sm.rdb == nil {
		return
	}
	ctx := context.Background()
	sm.rdb.ZRem(ctx, idleSetKey, token)
	sm.rdb.Del(ctx, lastActiveKey(token))
}

// StartIdleWorker closes sessions nobody has touched for IdleTimeoutSeconds and
// evicts ended sessions from memory once they are older than SessionTTLMinutes.
func StartIdleWorker(ctx context.Context, sm *SessionManager, sink FrameSink) {
	if sm == nil {
		log.Println("[IDLE] Session manager missing; idle worker not started")
		return
	}
	cfg := sm.GetConfig()
	if cfg.IdleTimeoutSeconds <= 0 {
		log.Println("[IDLE] Idle timeout disabled; idle worker not started")
		return
	}
	poll := time.Duration(cfg.IdleWorkerPollSeconds) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				for _, token := range sm.DueIdleSessions(ctx, time.Now()) {
					log.Printf("[IDLE] Closing session %s due to inactivity", token)
					if err := sm.EndSession(token); err != nil {
						log.Printf("[IDLE] Failed to end session %s: %v", token, err)
						continue
					}
					if !sm.PublishExpired(token) && sink != nil {
						sink.SendExpired(token)
					}
				}
				ttl := time.Duration(sm.GetConfig().SessionTTLMinutes) * time.Minute
				if n := sm.EvictEnded(ttl); n > 0 {
					log.Printf("[IDLE] Evicted %d ended sessions", n)
				}
			}
		}
	}()
}

// DueIdleSessions returns the tokens of sessions idle past the timeout at now.
// With Redis the idle sorted set is authoritative (and shared between instances);
// without it the in-memory activity timestamps are used.
func (sm *SessionManager) DueIdleSessions(ctx context.Context, now time.Time) []string {
	timeout := int64(sm.GetConfig().IdleTimeoutSeconds)

	if sm.rdb == nil {
		var due []string
		for _, s := range sm.ActiveSessions() {
			snap := s.Snapshot()
			if now.Unix()-snap.LastActivity.Unix() >= timeout {
				due = append(due, s.Token)
			}
		}
		return due
	}

	members, err := sm.rdb.ZRangeByScore(ctx, idleSetKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now.Unix())}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
		return nil
	}

	var due []string
	for _, token := range members {
		// Attempt to remove (race-safe between instances)
		if removed, _ := sm.rdb.ZRem(ctx, idleSetKey, token).Result(); removed == 0 {
			continue
		}
		last, _ := sm.rdb.Get(ctx, lastActiveKey(token)).Result()
		lastTs, _ := strconv.ParseInt(last, 10, 64)
		if now.Unix()-lastTs >= timeout {
			due = append(due, token)
		}
	}
	return due
}
