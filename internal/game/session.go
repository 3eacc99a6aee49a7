package game

import (
	"errors"
	"sync"
	"time"
)

// SessionStatus is the lifecycle state of a practice session.
type SessionStatus string

const (
	SessionActive SessionStatus = "ACTIVE"
	SessionEnded  SessionStatus = "ENDED"
)

var (
	ErrSessionEnded  = errors.New("session has ended")
	ErrTooManyBodies = errors.New("too many bodies on the table")
	ErrInvalidShot   = errors.New("shot needs a direction and magnitude or an aim point")
)

// BodyState is the read-only view of a body sent to renderers.
type BodyState struct {
	ID     BodyID  `json:"id"`
	Role   Role    `json:"role"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Mass   float64 `json:"mass"`
	Color  string  `json:"color"`
}

// ShotParams is a strike request: either an explicit direction and magnitude,
// or the point where a drag gesture was released.
type ShotParams struct {
	Direction *Vec2   `json:"direction,omitempty"`
	Magnitude float64 `json:"magnitude,omitempty"`
	Aim       *Vec2   `json:"aim,omitempty"`
}

// SpawnParams is a request to add a body; zero radius, mass or colour use the scenario defaults.
type SpawnParams struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Radius float64  `json:"radius,omitempty"`
	Mass   *float64 `json:"mass,omitempty"`
	Color  string   `json:"color,omitempty"`
}

// FrameResult is the outcome of advancing a session by one frame.
type FrameResult struct {
	Token    string      `json:"token"`
	Frame    uint64      `json:"frame"`
	Events   []Event     `json:"events"`
	Bodies   []BodyState `json:"bodies"`
	Cushions int         `json:"cushions"` // bodies that reached a wall this frame
	AtRest   bool        `json:"at_rest"`
}

// SessionSnapshot is the serialisable state of a session.
type SessionSnapshot struct {
	ID           string        `json:"id"`
	Token        string        `json:"token"`
	DisplayName  string        `json:"display_name"`
	Status       SessionStatus `json:"status"`
	Frame        uint64        `json:"frame"`
	Shots        int           `json:"shots"`
	Captures     int           `json:"captures"`
	Resets       int           `json:"resets"`
	Table        Table         `json:"table"`
	Pockets      []Pocket      `json:"pockets"`
	Bodies       []BodyState   `json:"bodies"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	DBID         int           `json:"db_id,omitempty"`
}

// PracticeSession is one player's table. All access to the simulation goes
// through the session lock.
type PracticeSession struct {
	ID           string
	Token        string
	DisplayName  string
	Status       SessionStatus
	Frame        uint64
	Shots        int
	Captures     int
	Resets       int
	CreatedAt    time.Time
	LastActivity time.Time
	EndedAt      *time.Time
	DBID         int

	maxBodies int
	restSpeed float64
	wasMoving bool
	sim       *Simulation
	mu        sync.RWMutex
}

// NewPracticeSession racks a fresh table.
func NewPracticeSession(id, token, displayName string, physics PhysicsConfig, sc Scenario, maxBodies int, restSpeed float64) *PracticeSession {
	now := time.Now()
	return &PracticeSession{
		ID:           id,
		Token:        token,
		DisplayName:  displayName,
		Status:       SessionActive,
		CreatedAt:    now,
		LastActivity: now,
		maxBodies:    maxBodies,
		restSpeed:    restSpeed,
		sim:          NewSimulation(physics, sc),
	}
}

// Advance steps the table by dt and reports the frame.
// Captures and scene resets are tallied on the session.
func (s *PracticeSession) Advance(dt float64) (*FrameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != SessionActive {
		return nil, ErrSessionEnded
	}

	events, err := s.sim.Step(dt)
	if err != nil {
		return nil, err
	}
	s.Frame++

	for _, e := range events {
		switch e.Type {
		case EventCapture:
			s.Captures++
		case EventSceneReset:
			s.Resets++
		}
	}

	return &FrameResult{
		Token:    s.Token,
		Frame:    s.Frame,
		Events:   events,
		Bodies:   s.bodyStates(),
		Cushions: s.sim.CushionHits,
		AtRest:   s.sim.AtRest(s.restSpeed),
	}, nil
}

// NeedsBroadcast reports whether the table is worth sending this frame: it is
// moving, something happened, or it has just come to rest. Bodies resting
// against each other touch every frame; those contacts alone are not news.
func (s *PracticeSession) NeedsBroadcast(fr *FrameResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	moving := !fr.AtRest
	send := moving || s.wasMoving
	for _, e := range fr.Events {
		if e.Type != EventCollision || e.Speed > s.restSpeed {
			send = true
			break
		}
	}
	s.wasMoving = moving
	return send
}

// Shoot strikes the primary body. Returns the velocity it was given.
func (s *PracticeSession) Shoot(params ShotParams) (Vec2, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != SessionActive {
		return Vec2{}, ErrSessionEnded
	}

	var vel Vec2
	switch {
	case params.Aim != nil:
		v, err := s.sim.AimFrom(*params.Aim)
		if err != nil {
			return Vec2{}, err
		}
		vel = v
	case params.Direction != nil:
		if params.Magnitude <= 0 || params.Magnitude > MaxShotSpeed {
			return Vec2{}, ErrInvalidPower
		}
		if err := s.sim.Strike(*params.Direction, params.Magnitude); err != nil {
			return Vec2{}, err
		}
		vel = s.sim.Primary().Velocity
	default:
		return Vec2{}, ErrInvalidShot
	}

	if vel.Magnitude() > MaxShotSpeed {
		p := s.sim.Primary()
		p.Velocity = vel.Normalize().Times(MaxShotSpeed)
		vel = p.Velocity
	}

	s.Shots++
	s.wasMoving = true
	s.LastActivity = time.Now()
	return vel, nil
}

// Spawn adds an object body to the table.
func (s *PracticeSession) Spawn(params SpawnParams) (BodyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != SessionActive {
		return BodyState{}, ErrSessionEnded
	}
	if s.maxBodies > 0 && len(s.sim.Bodies) >= s.maxBodies {
		return BodyState{}, ErrTooManyBodies
	}

	req := SpawnRequest{
		Position: NewVec2(params.X, params.Y),
		Radius:   params.Radius,
		Color:    params.Color,
		Mass:     s.sim.Scenario.BodyMass,
	}
	if req.Radius == 0 {
		req.Radius = s.sim.Scenario.BodyRadius
	}
	if params.Mass != nil {
		req.Mass = *params.Mass
	}
	if req.Color == "" {
		req.Color = RandomColor()
	}

	id, err := s.sim.Spawn(req)
	if err != nil {
		return BodyState{}, err
	}
	s.LastActivity = time.Now()
	return toBodyState(s.sim.Body(id)), nil
}

// Reset re-racks the table.
func (s *PracticeSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != SessionActive {
		return ErrSessionEnded
	}
	s.sim.ResetScene()
	s.Resets++
	s.wasMoving = true
	s.LastActivity = time.Now()
	return nil
}

// End stops the session. Ending twice is a no-op; the first end time is kept.
func (s *PracticeSession) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status == SessionEnded {
		return
	}
	now := time.Now()
	s.Status = SessionEnded
	s.EndedAt = &now
}

// IsActive reports whether the session still accepts commands.
func (s *PracticeSession) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status == SessionActive
}

// Touch records player activity.
func (s *PracticeSession) Touch() {
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

// Snapshot returns a copy of the session state.
func (s *PracticeSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pockets := make([]Pocket, len(s.sim.Scenario.Pockets))
	copy(pockets, s.sim.Scenario.Pockets)

	return SessionSnapshot{
		ID:           s.ID,
		Token:        s.Token,
		DisplayName:  s.DisplayName,
		Status:       s.Status,
		Frame:        s.Frame,
		Shots:        s.Shots,
		Captures:     s.Captures,
		Resets:       s.Resets,
		Table:        s.sim.Scenario.Table,
		Pockets:      pockets,
		Bodies:       s.bodyStates(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		EndedAt:      s.EndedAt,
		DBID:         s.DBID,
	}
}

// restore overwrites the live bodies from a snapshot (Redis rehydration).
func (s *PracticeSession) restore(snap SessionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = snap.Status
	s.Frame = snap.Frame
	s.Shots = snap.Shots
	s.Captures = snap.Captures
	s.Resets = snap.Resets
	s.CreatedAt = snap.CreatedAt
	s.EndedAt = snap.EndedAt
	s.DBID = snap.DBID

	bodies := make([]Body, 0, len(snap.Bodies))
	var maxID BodyID
	for _, bs := range snap.Bodies {
		b := NewBody(bs.ID, NewVec2(bs.X, bs.Y), bs.Radius, bs.Color, bs.Mass)
		b.Role = bs.Role
		b.Velocity = NewVec2(bs.VX, bs.VY)
		bodies = append(bodies, b)
		if bs.ID > maxID {
			maxID = bs.ID
		}
	}
	s.sim.Bodies = bodies
	if next := maxID + 1; next > s.sim.nextID {
		s.sim.nextID = next
	}
}

func (s *PracticeSession) bodyStates() []BodyState {
	out := make([]BodyState, len(s.sim.Bodies))
	for i := range s.sim.Bodies {
		out[i] = toBodyState(&s.sim.Bodies[i])
	}
	return out
}

func toBodyState(b *Body) BodyState {
	return BodyState{
		ID:     b.ID,
		Role:   b.Role,
		X:      b.Position.X,
		Y:      b.Position.Y,
		VX:     b.Velocity.X,
		VY:     b.Velocity.Y,
		Radius: b.Radius,
		Mass:   b.Mass,
		Color:  b.Color,
	}
}
