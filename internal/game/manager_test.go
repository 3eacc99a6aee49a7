package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/playmatatu/cuetable/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		FrameRate:           60,
		SessionTTLMinutes:   60,
		IdleTimeoutSeconds:  600,
		MaxSessions:         2,
		MaxBodies:           64,
		SnapshotEveryFrames: 60,
		RestSpeed:           1.0,
		Damping:             Damping,
		WallRestitution:     WallRestitution,
		CollisionLoss:       CollisionLoss,
		ShotPowerScale:      ShotPowerScale,
		TableWidth:          TableWidth,
		TableHeight:         TableHeight,
		TableBorder:         TableBorder,
		PocketRadius:        PocketRadius,
		BreakerMaxFailures:  5,
	}
}

type recordingSink struct {
	mu      sync.Mutex
	frames  []*FrameResult
	events  map[string][]Event
	expired []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: map[string][]Event{}}
}

func (r *recordingSink) SendFrame(fr *FrameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, fr)
}

func (r *recordingSink) SendEvents(token string, frame uint64, events []Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[token] = append(r.events[token], events...)
}

func (r *recordingSink) SendExpired(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, token)
}

func TestCreateAndLookupSession(t *testing.T) {
	sm := NewSessionManager(nil, nil, testConfig())

	s, err := sm.CreateSession("  ")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if s.DisplayName != "Player" {
		t.Errorf("Blank name should default to Player, got %q", s.DisplayName)
	}
	if len(s.Token) != 32 {
		t.Errorf("Token should be 32 hex chars, got %q", s.Token)
	}

	got, err := sm.GetSessionByToken(s.Token)
	if err != nil || got != s {
		t.Errorf("Lookup returned %v, %v", got, err)
	}
	if _, err := sm.GetSessionByToken("missing"); err != ErrSessionNotFound {
		t.Errorf("Unknown token: want ErrSessionNotFound, got %v", err)
	}
}

func TestMaxSessions(t *testing.T) {
	sm := NewSessionManager(nil, nil, testConfig())

	a, _ := sm.CreateSession("a")
	if _, err := sm.CreateSession("b"); err != nil {
		t.Fatalf("Second session failed: %v", err)
	}
	if _, err := sm.CreateSession("c"); err != ErrTooManySessions {
		t.Errorf("Want ErrTooManySessions, got %v", err)
	}

	if err := sm.EndSession(a.Token); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if sm.ActiveCount() != 1 {
		t.Errorf("ActiveCount: want 1, got %d", sm.ActiveCount())
	}
	if _, err := sm.CreateSession("c"); err != nil {
		t.Errorf("Ending a session should free a slot: %v", err)
	}
}

func TestTickBroadcastsMovingTables(t *testing.T) {
	sm := NewSessionManager(nil, nil, testConfig())
	sink := newRecordingSink()

	s, _ := sm.CreateSession("shooter")
	idle, _ := sm.CreateSession("idle")

	dir := NewVec2(1, 0)
	if _, err := s.Shoot(ShotParams{Direction: &dir, Magnitude: 500}); err != nil {
		t.Fatalf("Shoot failed: %v", err)
	}

	// Let the rack settle so the idle table stops reporting frames.
	for i := 0; i < 600; i++ {
		sm.Tick(1.0/60, nil)
	}
	s.Shoot(ShotParams{Direction: &dir, Magnitude: 500})
	sm.Tick(1.0/60, sink)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var sawShooter bool
	for _, fr := range sink.frames {
		if fr.Token == s.Token {
			sawShooter = true
		}
		if fr.Token == idle.Token {
			t.Errorf("Idle table at rest should not be broadcast: frame %d", fr.Frame)
		}
	}
	if !sawShooter {
		t.Error("Moving table was not broadcast")
	}
}

func TestTickDeliversCapturesLocallyWithoutRedis(t *testing.T) {
	sm := NewSessionManager(nil, nil, testConfig())
	sink := newRecordingSink()

	s, _ := sm.CreateSession("p")
	bs, err := s.Spawn(SpawnParams{X: TableWidth - PocketInset, Y: TableHeight - PocketInset})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	sm.Tick(1.0/60, sink)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	evs := sink.events[s.Token]
	if len(evs) != 1 || evs[0].Type != EventCapture || evs[0].BodyID != bs.ID {
		t.Fatalf("Expected one capture for body %d, got %+v", bs.ID, evs)
	}
	if evs[0].TargetID != 5 {
		t.Errorf("Capture should name pocket 5, got %d", evs[0].TargetID)
	}
}

func TestDueIdleSessionsInMemory(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTimeoutSeconds = 30
	sm := NewSessionManager(nil, nil, cfg)

	stale, _ := sm.CreateSession("stale")
	fresh, _ := sm.CreateSession("fresh")

	due := sm.DueIdleSessions(context.Background(), time.Now().Add(10*time.Second))
	if len(due) != 0 {
		t.Fatalf("No session should be idle yet: %v", due)
	}

	later := time.Now().Add(time.Minute)
	fresh.mu.Lock()
	fresh.LastActivity = later
	fresh.mu.Unlock()

	due = sm.DueIdleSessions(context.Background(), later)
	if len(due) != 1 || due[0] != stale.Token {
		t.Errorf("Only the stale session should be due, got %v", due)
	}
}

func TestEvictEnded(t *testing.T) {
	sm := NewSessionManager(nil, nil, testConfig())
	s, _ := sm.CreateSession("p")
	sm.EndSession(s.Token)

	if n := sm.EvictEnded(time.Hour); n != 0 {
		t.Errorf("Recently ended session should be kept, evicted %d", n)
	}
	if n := sm.EvictEnded(-time.Second); n != 1 {
		t.Errorf("Expected one eviction, got %d", n)
	}
	if _, err := sm.GetSessionByToken(s.Token); err != ErrSessionNotFound {
		t.Errorf("Evicted session should be gone, got %v", err)
	}
}

func TestApplyConfigAffectsNewSessions(t *testing.T) {
	sm := NewSessionManager(nil, nil, testConfig())
	before, _ := sm.CreateSession("before")

	cfg := testConfig()
	cfg.Damping = 0.1
	sm.ApplyConfig(cfg)
	after, _ := sm.CreateSession("after")

	if before.sim.Config.Damping != Damping {
		t.Errorf("Running session should keep its damping, got %v", before.sim.Config.Damping)
	}
	if after.sim.Config.Damping != 0.1 {
		t.Errorf("New session should use updated damping, got %v", after.sim.Config.Damping)
	}
}

func TestPhysicsFromConfigBuildsPockets(t *testing.T) {
	cfg := testConfig()
	cfg.TableWidth = 1000
	cfg.PocketRadius = 25

	physics, sc := PhysicsFromConfig(cfg)
	if physics.ShotPowerScale != ShotPowerScale {
		t.Errorf("ShotPowerScale: want %v, got %v", ShotPowerScale, physics.ShotPowerScale)
	}
	if len(sc.Pockets) != 6 {
		t.Fatalf("Want 6 pockets, got %d", len(sc.Pockets))
	}
	if sc.Pockets[1].Position.X != 500 || sc.Pockets[1].Radius != 25 {
		t.Errorf("Middle pocket misplaced: %+v", sc.Pockets[1])
	}
	if sc.StartPoint.X != 250 {
		t.Errorf("Start point should be a quarter of the width, got %.1f", sc.StartPoint.X)
	}
}
