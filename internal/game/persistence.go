package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/playmatatu/cuetable/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	// EventsChannel carries capture, reset and expiry notifications between instances.
	EventsChannel = "practice_events"

	snapshotTTL = time.Hour
)

func sessionStateKey(token string) string {
	return "practice:" + token + ":state"
}

// newPersistenceBreaker guards DB writes issued from the frame loop.
func newPersistenceBreaker(cfg *config.Config) *gobreaker.CircuitBreaker {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	timeout := time.Duration(cfg.BreakerTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "practice-db",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[DB] circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

// execGuarded runs a DB write through the circuit breaker.
func (sm *SessionManager) execGuarded(op func() error) error {
	_, err := sm.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	return err
}

// RecordSessionStart inserts the session row and returns its id (0 without a DB).
func (sm *SessionManager) RecordSessionStart(s *PracticeSession) (int, error) {
	if sm == nil || sm.db == nil {
		return 0, nil
	}

	var id int
	err := sm.execGuarded(func() error {
		return sm.db.Get(&id,
			`INSERT INTO practice_sessions (token, display_name, status, created_at) VALUES ($1,$2,$3,$4) RETURNING id`,
			s.Token, s.DisplayName, string(SessionActive), s.CreatedAt,
		)
	})
	return id, err
}

// RecordEvents stores the notable events of a frame. Collisions are not stored.
func (sm *SessionManager) RecordEvents(s *PracticeSession, frame uint64, events []Event) {
	if sm == nil || sm.db == nil {
		return
	}
	dbID := s.Snapshot().DBID
	if dbID == 0 {
		return
	}

	for _, e := range events {
		if e.Type == EventCollision {
			continue
		}
		e := e
		err := sm.execGuarded(func() error {
			_, err := sm.db.Exec(
				`INSERT INTO practice_events (session_id, event_type, body_id, target_id, speed, frame, created_at) VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
				dbID, string(e.Type), int(e.BodyID), sql.NullInt64{Int64: int64(e.TargetID), Valid: true}, e.Speed, int64(frame),
			)
			return err
		})
		if err != nil {
			log.Printf("[DB] Failed to record %s event for session %d: %v", e.Type, dbID, err)
		}
	}
}

// RecordShot stores a shot with its resulting velocity.
func (sm *SessionManager) RecordShot(s *PracticeSession, params ShotParams, vel Vec2) {
	if sm == nil || sm.db == nil {
		return
	}
	snap := s.Snapshot()
	if snap.DBID == 0 {
		return
	}

	details, err := json.Marshal(map[string]interface{}{"params": params, "velocity": vel})
	if err != nil {
		log.Printf("[DB] Failed to marshal shot for session %d: %v", snap.DBID, err)
		return
	}

	err = sm.execGuarded(func() error {
		_, err := sm.db.Exec(
			`INSERT INTO practice_events (session_id, event_type, body_id, speed, frame, details, created_at) VALUES ($1,$2,$3,$4,$5,$6::jsonb,NOW())`,
			snap.DBID, "shot", 0, vel.Magnitude(), int64(snap.Frame), string(details),
		)
		return err
	})
	if err != nil {
		log.Printf("[DB] Failed to record shot for session %d: %v", snap.DBID, err)
	}
}

// SaveFinalSession writes the final tallies of an ended session.
func (sm *SessionManager) SaveFinalSession(s *PracticeSession) {
	if sm == nil || sm.db == nil {
		return
	}

	snap := s.Snapshot()
	if snap.DBID == 0 {
		return
	}
	endedAt := time.Now()
	if snap.EndedAt != nil {
		endedAt = *snap.EndedAt
	}

	err := sm.execGuarded(func() error {
		_, err := sm.db.Exec(
			`UPDATE practice_sessions SET status=$1, shots=$2, captures=$3, resets=$4, frames=$5, ended_at=$6 WHERE id=$7`,
			string(snap.Status), snap.Shots, snap.Captures, snap.Resets, int64(snap.Frame), endedAt, snap.DBID,
		)
		return err
	})
	if err != nil {
		log.Printf("[DB] Failed to save final state for session %d: %v", snap.DBID, err)
	}
}

// saveSessionToRedis stores a snapshot so another instance can pick the table up.
func (sm *SessionManager) saveSessionToRedis(s *PracticeSession) error {
	if sm.rdb == nil {
		return nil
	}

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return err
	}
	return sm.rdb.SetEx(context.Background(), sessionStateKey(s.Token), data, snapshotTTL).Err()
}

// loadSessionFromRedis rebuilds a session from its last snapshot.
func (sm *SessionManager) loadSessionFromRedis(token string) (*PracticeSession, error) {
	if sm.rdb == nil {
		return nil, errors.New("no redis client")
	}

	data, err := sm.rdb.Get(context.Background(), sessionStateKey(token)).Result()
	if err == redis.Nil {
		return nil, errors.New("session not found in redis")
	}
	if err != nil {
		return nil, err
	}

	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	sm.mu.RLock()
	physics, scenario := sm.physics, sm.scenario
	maxBodies, restSpeed := sm.config.MaxBodies, sm.config.RestSpeed
	sm.mu.RUnlock()

	if snap.Table.Width > 0 {
		scenario.Table = snap.Table
	}
	if len(snap.Pockets) > 0 {
		scenario.Pockets = snap.Pockets
	}

	s := NewPracticeSession(snap.ID, snap.Token, snap.DisplayName, physics, scenario, maxBodies, restSpeed)
	s.restore(snap)
	return s, nil
}

// PublishEvents fans capture and scene-reset events out to every instance.
// Returns false when there is no Redis client and callers must deliver locally.
func (sm *SessionManager) PublishEvents(token string, frame uint64, events []Event) bool {
	if sm.rdb == nil {
		return false
	}

	ctx := context.Background()
	for _, e := range events {
		if e.Type == EventCollision {
			continue
		}
		payload := map[string]interface{}{
			"type":      string(e.Type),
			"token":     token,
			"frame":     frame,
			"body_id":   e.BodyID,
			"target_id": e.TargetID,
			"speed":     e.Speed,
		}
		b, _ := json.Marshal(payload)
		if err := sm.rdb.Publish(ctx, EventsChannel, b).Err(); err != nil {
			log.Printf("[PRACTICE] publish %s failed: session=%s err=%v", e.Type, token, err)
		}
	}
	return true
}

// PublishExpired announces that an idle session was closed.
func (sm *SessionManager) PublishExpired(token string) bool {
	if sm.rdb == nil {
		return false
	}
	b, _ := json.Marshal(map[string]interface{}{
		"type":    "session_expired",
		"token":   token,
		"message": "Session closed after inactivity",
	})
	if err := sm.rdb.Publish(context.Background(), EventsChannel, b).Err(); err != nil {
		log.Printf("[IDLE] publish expiry failed: session=%s err=%v", token, err)
	}
	return true
}
