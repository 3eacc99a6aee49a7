package game

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/cuetable/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

// SessionManager owns every practice table served by this instance
type SessionManager struct {
	sessions map[string]*PracticeSession // keyed by session token
	rdb      *redis.Client               // Redis client for snapshots, events and idle tracking
	db       *sqlx.DB                    // SQL DB for session history
	config   *config.Config              // Application config
	physics  PhysicsConfig
	scenario Scenario
	breaker  *gobreaker.CircuitBreaker
	mu       sync.RWMutex
}

var (
	// Global session manager instance
	Manager *SessionManager
)

// InitializeManager initializes the global session manager with Redis, DB and config
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewSessionManager(db, rdb, cfg)
}

// NewSessionManager creates a session manager. db and rdb may be nil.
func NewSessionManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *SessionManager {
	if cfg == nil {
		cfg = config.Load()
	}
	physics, scenario := PhysicsFromConfig(cfg)
	return &SessionManager{
		sessions: make(map[string]*PracticeSession),
		rdb:      rdb,
		db:       db,
		config:   cfg,
		physics:  physics,
		scenario: scenario,
		breaker:  newPersistenceBreaker(cfg),
	}
}

// PhysicsFromConfig builds the physics coefficients and table scenario from config.
func PhysicsFromConfig(cfg *config.Config) (PhysicsConfig, Scenario) {
	physics := PhysicsConfig{
		Damping:         cfg.Damping,
		WallRestitution: cfg.WallRestitution,
		CollisionLoss:   cfg.CollisionLoss,
		ShotPowerScale:  cfg.ShotPowerScale,
	}

	sc := StandardScenario()
	if cfg.TableWidth > 0 && cfg.TableHeight > 0 {
		sc.Table = Table{Width: cfg.TableWidth, Height: cfg.TableHeight, Border: cfg.TableBorder}
		sc.StartPoint = NewVec2(sc.Table.Width/4, StartY)
	}
	pocketRadius := cfg.PocketRadius
	if pocketRadius <= 0 {
		pocketRadius = PocketRadius
	}
	sc.Pockets = StandardPockets(sc.Table, pocketRadius)
	return physics, sc
}

// ApplyConfig swaps in new physics settings. Running sessions keep theirs;
// sessions created afterwards use the new ones.
func (sm *SessionManager) ApplyConfig(cfg *config.Config) {
	physics, scenario := PhysicsFromConfig(cfg)
	sm.mu.Lock()
	sm.physics = physics
	sm.scenario = scenario
	sm.config = cfg
	sm.mu.Unlock()
	log.Printf("[PRACTICE] Physics updated: damping=%.3f wall=%.3f loss=%.3f", physics.Damping, physics.WallRestitution, physics.CollisionLoss)
}

// GetConfig returns the current configuration.
func (sm *SessionManager) GetConfig() *config.Config {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.config
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// generateSessionID generates a unique session ID
func generateSessionID() string {
	return "practice_" + generateToken(8)
}

// CreateSession racks a new table for a player.
func (sm *SessionManager) CreateSession(displayName string) (*PracticeSession, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Player"
	}

	sm.mu.Lock()
	if sm.config.MaxSessions > 0 && sm.activeCountLocked() >= sm.config.MaxSessions {
		sm.mu.Unlock()
		return nil, ErrTooManySessions
	}

	s := NewPracticeSession(generateSessionID(), generateToken(16), displayName, sm.physics, sm.scenario, sm.config.MaxBodies, sm.config.RestSpeed)
	sm.sessions[s.Token] = s
	sm.mu.Unlock()

	log.Printf("[PRACTICE] Session created: %s (token=%s, player=%s)", s.ID, s.Token, displayName)

	if id, err := sm.RecordSessionStart(s); err != nil {
		log.Printf("[DB] Failed to record session %s: %v", s.ID, err)
	} else if id > 0 {
		s.mu.Lock()
		s.DBID = id
		s.mu.Unlock()
	}

	if err := sm.saveSessionToRedis(s); err != nil {
		log.Printf("[PRACTICE] Failed to save session %s to Redis: %v", s.ID, err)
	}
	sm.Touch(s.Token)

	return s, nil
}

// GetSessionByToken returns the session for a token, restoring it from Redis
// when this instance does not hold it.
func (sm *SessionManager) GetSessionByToken(token string) (*PracticeSession, error) {
	sm.mu.RLock()
	s, ok := sm.sessions[token]
	sm.mu.RUnlock()
	if ok {
		return s, nil
	}

	restored, err := sm.loadSessionFromRedis(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if existing, ok := sm.sessions[token]; ok {
		return existing, nil
	}
	sm.sessions[token] = restored
	log.Printf("[PRACTICE] Session %s restored from Redis", token)
	return restored, nil
}

// EndSession stops a session and persists its final tallies.
func (sm *SessionManager) EndSession(token string) error {
	s, err := sm.GetSessionByToken(token)
	if err != nil {
		return err
	}
	if !s.IsActive() {
		return nil
	}
	s.End()

	sm.SaveFinalSession(s)
	if err := sm.saveSessionToRedis(s); err != nil {
		log.Printf("[PRACTICE] Failed to save ended session %s to Redis: %v", s.ID, err)
	}
	sm.clearIdle(token)

	log.Printf("[PRACTICE] Session ended: %s", s.ID)
	return nil
}

// ActiveSessions returns the sessions still accepting commands, oldest first.
func (sm *SessionManager) ActiveSessions() []*PracticeSession {
	sm.mu.RLock()
	out := make([]*PracticeSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	sm.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ActiveCount returns the number of active sessions.
func (sm *SessionManager) ActiveCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.activeCountLocked()
}

func (sm *SessionManager) activeCountLocked() int {
	n := 0
	for _, s := range sm.sessions {
		if s.IsActive() {
			n++
		}
	}
	return n
}

// EvictEnded drops ended sessions older than maxAge from memory.
func (sm *SessionManager) EvictEnded(maxAge time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for token, s := range sm.sessions {
		snap := s.Snapshot()
		if snap.Status == SessionEnded && snap.EndedAt != nil && time.Since(*snap.EndedAt) > maxAge {
			delete(sm.sessions, token)
			removed++
		}
	}
	return removed
}
