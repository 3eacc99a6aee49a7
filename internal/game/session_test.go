package game

import (
	"encoding/json"
	"testing"
)

func newTestSession(maxBodies int) *PracticeSession {
	return NewPracticeSession("practice_test", "tok", "Tester", DefaultPhysicsConfig(), StandardScenario(), maxBodies, 1.0)
}

func TestShootValidation(t *testing.T) {
	s := newTestSession(0)

	if _, err := s.Shoot(ShotParams{}); err != ErrInvalidShot {
		t.Errorf("Empty shot: want ErrInvalidShot, got %v", err)
	}
	dir := NewVec2(1, 0)
	if _, err := s.Shoot(ShotParams{Direction: &dir, Magnitude: 0}); err != ErrInvalidPower {
		t.Errorf("Zero power: want ErrInvalidPower, got %v", err)
	}
	if _, err := s.Shoot(ShotParams{Direction: &dir, Magnitude: MaxShotSpeed + 1}); err != ErrInvalidPower {
		t.Errorf("Excessive power: want ErrInvalidPower, got %v", err)
	}
	if s.Snapshot().Shots != 0 {
		t.Error("Rejected shots should not be counted")
	}

	vel, err := s.Shoot(ShotParams{Direction: &dir, Magnitude: 500})
	if err != nil {
		t.Fatalf("Valid shot failed: %v", err)
	}
	if !near(vel.X, 500) {
		t.Errorf("Shot velocity: want 500, got %.2f", vel.X)
	}
	if s.Snapshot().Shots != 1 {
		t.Error("Shot should be counted")
	}
}

func TestAimShotIsClamped(t *testing.T) {
	s := newTestSession(0)

	// 5000 units of drag at power scale 20 is far past the cap.
	aim := NewVec2(225-5000, 250)
	vel, err := s.Shoot(ShotParams{Aim: &aim})
	if err != nil {
		t.Fatalf("Aim shot failed: %v", err)
	}
	if !near(vel.Magnitude(), MaxShotSpeed) {
		t.Errorf("Aim shot should be clamped to %.0f, got %.2f", MaxShotSpeed, vel.Magnitude())
	}
}

func TestSpawnRespectsBodyLimit(t *testing.T) {
	s := newTestSession(17)

	bs, err := s.Spawn(SpawnParams{X: 450, Y: 100})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if bs.Radius != BallRadius || bs.Mass != BallMass || bs.Color == "" {
		t.Errorf("Spawn defaults not applied: %+v", bs)
	}

	if _, err := s.Spawn(SpawnParams{X: 450, Y: 400}); err != ErrTooManyBodies {
		t.Errorf("Want ErrTooManyBodies, got %v", err)
	}
}

func TestSpawnStaticBody(t *testing.T) {
	s := newTestSession(0)
	zero := 0.0

	bs, err := s.Spawn(SpawnParams{X: 450, Y: 100, Radius: 25, Mass: &zero, Color: "gray"})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if bs.Mass != 0 || bs.Radius != 25 || bs.Color != "gray" {
		t.Errorf("Explicit spawn params ignored: %+v", bs)
	}
}

func TestEndedSessionRejectsCommands(t *testing.T) {
	s := newTestSession(0)
	s.End()
	first := s.Snapshot().EndedAt
	s.End()

	if s.IsActive() {
		t.Error("Session should be inactive after End")
	}
	if s.Snapshot().EndedAt != first {
		t.Error("Second End should keep the first end time")
	}

	dir := NewVec2(1, 0)
	if _, err := s.Shoot(ShotParams{Direction: &dir, Magnitude: 100}); err != ErrSessionEnded {
		t.Errorf("Shoot: want ErrSessionEnded, got %v", err)
	}
	if _, err := s.Spawn(SpawnParams{X: 100, Y: 100}); err != ErrSessionEnded {
		t.Errorf("Spawn: want ErrSessionEnded, got %v", err)
	}
	if err := s.Reset(); err != ErrSessionEnded {
		t.Errorf("Reset: want ErrSessionEnded, got %v", err)
	}
	if _, err := s.Advance(1.0 / 60); err != ErrSessionEnded {
		t.Errorf("Advance: want ErrSessionEnded, got %v", err)
	}
}

func TestAdvanceTalliesCaptures(t *testing.T) {
	s := newTestSession(0)
	if _, err := s.Spawn(SpawnParams{X: PocketInset, Y: PocketInset}); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	fr, err := s.Advance(1.0 / 60)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if fr.Frame != 1 {
		t.Errorf("Frame counter: want 1, got %d", fr.Frame)
	}
	if countEvents(fr.Events, EventCapture) != 1 {
		t.Errorf("Expected a capture event, got %+v", fr.Events)
	}
	if s.Snapshot().Captures != 1 {
		t.Errorf("Captures: want 1, got %d", s.Snapshot().Captures)
	}
	if len(fr.Bodies) != 16 {
		t.Errorf("Frame should list the remaining 16 bodies, got %d", len(fr.Bodies))
	}
}

func TestNeedsBroadcastAfterComingToRest(t *testing.T) {
	s := newTestSession(0)

	moving := &FrameResult{AtRest: false}
	still := &FrameResult{AtRest: true}

	if !s.NeedsBroadcast(moving) {
		t.Error("Moving frame should be broadcast")
	}
	if !s.NeedsBroadcast(still) {
		t.Error("First frame at rest should be broadcast")
	}
	if s.NeedsBroadcast(still) {
		t.Error("Idle frames should not be broadcast")
	}
	if s.NeedsBroadcast(&FrameResult{AtRest: true, Events: []Event{{Type: EventCollision, Speed: 0}}}) {
		t.Error("Resting contacts alone should not be broadcast")
	}
	if !s.NeedsBroadcast(&FrameResult{AtRest: true, Events: []Event{{Type: EventCollision, Speed: 40}}}) {
		t.Error("Frames with real collisions should be broadcast")
	}
	if !s.NeedsBroadcast(&FrameResult{AtRest: true, Events: []Event{{Type: EventCapture}}}) {
		t.Error("Frames with captures should be broadcast")
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestSession(0)
	dir := NewVec2(0, 1)
	s.Shoot(ShotParams{Direction: &dir, Magnitude: 300})
	s.Advance(1.0 / 60)

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	restored := NewPracticeSession(snap.ID, snap.Token, snap.DisplayName, DefaultPhysicsConfig(), StandardScenario(), 0, 1.0)
	restored.restore(snap)

	got := restored.Snapshot()
	if got.Shots != 1 || got.Frame != 1 || len(got.Bodies) != len(snap.Bodies) {
		t.Errorf("Restored tallies differ: %+v", got)
	}
	if restored.sim.Primary() == nil {
		t.Fatal("Primary role lost on restore")
	}
	if !near(restored.sim.Primary().Velocity.Y, snap.Bodies[0].VY) {
		t.Error("Primary velocity lost on restore")
	}

	bs, err := restored.Spawn(SpawnParams{X: 450, Y: 100})
	if err != nil {
		t.Fatalf("Spawn after restore failed: %v", err)
	}
	for _, b := range snap.Bodies {
		if b.ID == bs.ID {
			t.Errorf("Spawned body reused id %d", bs.ID)
		}
	}
}

func TestOversizedSpawnKeepsFramesEncodable(t *testing.T) {
	s := newTestSession(0)

	if _, err := s.Spawn(SpawnParams{X: 300, Y: 300, Radius: 1e200}); err != ErrInvalidRadius {
		t.Fatalf("Want ErrInvalidRadius, got %v", err)
	}

	fr, err := s.Advance(1.0 / 60)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if len(fr.Bodies) != 16 {
		t.Errorf("Rejected spawn should not add a body, got %d", len(fr.Bodies))
	}
	if _, err := json.Marshal(fr); err != nil {
		t.Errorf("Frame should stay encodable: %v", err)
	}
}
