package game

import (
	"errors"
	"math"
	"math/rand"
)

var (
	ErrInvalidTimestep = errors.New("timestep must be positive")
	ErrInvalidRadius   = errors.New("radius must be positive")
	ErrInvalidMass     = errors.New("mass must not be negative")
	ErrInvalidPosition = errors.New("position must be finite")
	ErrNoPrimary       = errors.New("no primary body on the table")
	ErrZeroDirection   = errors.New("shot direction is zero")
	ErrInvalidPower    = errors.New("invalid shot power")
)

// EventType names a notification emitted by a simulation step.
type EventType string

const (
	EventCollision  EventType = "collision"   // two bodies touched
	EventCapture    EventType = "capture"     // object body dropped into a pocket
	EventSceneReset EventType = "scene_reset" // primary body sunk, rack regenerated
)

// Event records something that happened during a step, for sound and UI feedback.
type Event struct {
	Type     EventType `json:"type"`
	BodyID   BodyID    `json:"body_id"`
	TargetID int       `json:"target_id"` // other body for collisions, pocket for captures and resets
	Speed    float64   `json:"speed"`
}

// PhysicsConfig holds the tunable coefficients of a simulation.
type PhysicsConfig struct {
	Damping         float64 `json:"damping"`
	WallRestitution float64 `json:"wall_restitution"`
	CollisionLoss   float64 `json:"collision_loss"`
	ShotPowerScale  float64 `json:"shot_power_scale"`
}

// DefaultPhysicsConfig returns the reference coefficients.
func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		Damping:         Damping,
		WallRestitution: WallRestitution,
		CollisionLoss:   CollisionLoss,
		ShotPowerScale:  ShotPowerScale,
	}
}

// SpawnRequest asks for a new object body.
type SpawnRequest struct {
	Position Vec2
	Radius   float64
	Color    string
	Mass     float64
}

// Simulation owns the live bodies of one table and steps them frame by frame.
// It is not safe for concurrent use; callers serialise access.
type Simulation struct {
	Config   PhysicsConfig
	Scenario Scenario
	Bodies   []Body

	// CushionHits counts bodies that reached a wall during the last Step.
	CushionHits int

	integrator Integrator
	nextID     BodyID
}

// NewSimulation racks the scenario: primary body at the start point plus the formation.
func NewSimulation(cfg PhysicsConfig, sc Scenario) *Simulation {
	s := &Simulation{
		Config:     cfg,
		Scenario:   sc,
		integrator: Integrator{Damping: cfg.Damping},
	}
	s.ResetScene()
	return s
}

func (s *Simulation) newID() BodyID {
	id := s.nextID
	s.nextID++
	return id
}

// Primary returns the primary body, or nil when there is none.
func (s *Simulation) Primary() *Body {
	for i := range s.Bodies {
		if s.Bodies[i].IsPrimary() {
			return &s.Bodies[i]
		}
	}
	return nil
}

// Body returns the body with the given id, or nil.
func (s *Simulation) Body(id BodyID) *Body {
	for i := range s.Bodies {
		if s.Bodies[i].ID == id {
			return &s.Bodies[i]
		}
	}
	return nil
}

// ResetScene puts the primary body back at the start point at rest, drops
// every other body and regenerates the formation.
func (s *Simulation) ResetScene() {
	var primary Body
	if p := s.Primary(); p != nil {
		primary = *p
	} else {
		primary = NewBody(s.newID(), s.Scenario.StartPoint, s.Scenario.BodyRadius, s.Scenario.PrimaryColor, s.Scenario.BodyMass)
		primary.Role = RolePrimary
	}
	primary.Position = s.Scenario.StartPoint
	primary.Velocity = Vec2{}
	primary.Acceleration = Vec2{}
	primary.MarkedForRemoval = false

	bodies := make([]Body, 0, len(s.Scenario.Formation)+1)
	bodies = append(bodies, primary)
	for _, slot := range s.Scenario.Formation {
		bodies = append(bodies, NewBody(s.newID(), slot.Position, s.Scenario.BodyRadius, slot.Color, s.Scenario.BodyMass))
	}
	s.Bodies = bodies
}

// Step advances the table by dt seconds:
// integrate, walls, pairwise contacts, collision energy loss, pockets, prune.
func (s *Simulation) Step(dt float64) ([]Event, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, ErrInvalidTimestep
	}

	s.integrator.Damping = s.Config.Damping
	for i := range s.Bodies {
		s.integrator.Integrate(&s.Bodies[i], dt)
	}

	s.CushionHits = 0
	for i := range s.Bodies {
		if s.Scenario.Table.Constrain(&s.Bodies[i], s.Config.WallRestitution) {
			s.CushionHits++
		}
	}

	events := s.resolveContacts()

	if len(events) > 0 {
		for i := range s.Bodies {
			if !s.Bodies[i].IsStatic() {
				s.Bodies[i].Velocity = s.Bodies[i].Velocity.Times(s.Config.CollisionLoss)
			}
		}
	}

	events = append(events, s.EvaluatePockets()...)
	s.Prune()

	return events, nil
}

// resolveContacts checks every unordered pair in ascending (i, j) order and
// resolves each contact in place, so later pairs see earlier corrections.
func (s *Simulation) resolveContacts() []Event {
	var events []Event
	for i := 0; i < len(s.Bodies); i++ {
		for j := i + 1; j < len(s.Bodies); j++ {
			c, ok := Detect(&s.Bodies[i], &s.Bodies[j])
			if !ok {
				continue
			}
			speed := c.ClosingSpeed()
			c.ResolveCollision()
			events = append(events, Event{
				Type:     EventCollision,
				BodyID:   s.Bodies[i].ID,
				TargetID: int(s.Bodies[j].ID),
				Speed:    speed,
			})
		}
	}
	return events
}

// maxRadius is the largest body that fits inside the cushions of this table.
func (s *Simulation) maxRadius() float64 {
	in := s.Scenario.Table.Inner()
	limit := math.Min(in.Right-in.Left, in.Bottom-in.Top) / 2
	if !(limit > 0) || limit > MaxBodyRadius {
		return MaxBodyRadius
	}
	return limit
}

// Spawn appends a new object body and returns its id.
func (s *Simulation) Spawn(req SpawnRequest) (BodyID, error) {
	if !(req.Radius > 0) || req.Radius > s.maxRadius() {
		return 0, ErrInvalidRadius
	}
	if req.Mass < 0 || math.IsNaN(req.Mass) || math.IsInf(req.Mass, 0) {
		return 0, ErrInvalidMass
	}
	if !req.Position.IsFinite() {
		return 0, ErrInvalidPosition
	}
	b := NewBody(s.newID(), req.Position, req.Radius, req.Color, req.Mass)
	s.Bodies = append(s.Bodies, b)
	return b.ID, nil
}

// Strike sets the primary body's velocity directly, bypassing integration.
func (s *Simulation) Strike(direction Vec2, magnitude float64) error {
	p := s.Primary()
	if p == nil {
		return ErrNoPrimary
	}
	if !direction.IsFinite() {
		return ErrZeroDirection
	}
	dir := direction.Normalize()
	if dir.IsZero() {
		return ErrZeroDirection
	}
	if magnitude < 0 || math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return ErrInvalidPower
	}
	p.Velocity = dir.Times(magnitude)
	return nil
}

// AimFrom converts a drag gesture released at point into a strike: the
// primary body is sent away from the point, faster the further it was dragged.
func (s *Simulation) AimFrom(point Vec2) (Vec2, error) {
	p := s.Primary()
	if p == nil {
		return Vec2{}, ErrNoPrimary
	}
	pull := p.Position.Minus(point)
	if err := s.Strike(pull, pull.Magnitude()*s.Config.ShotPowerScale); err != nil {
		return Vec2{}, err
	}
	return p.Velocity, nil
}

// AtRest reports whether every body moves slower than threshold.
func (s *Simulation) AtRest(threshold float64) bool {
	t2 := threshold * threshold
	for i := range s.Bodies {
		if s.Bodies[i].Velocity.MagnitudeSquared() > t2 {
			return false
		}
	}
	return true
}

// RandomColor picks a colour from the spawn palette.
func RandomColor() string {
	return SpawnPalette[rand.Intn(len(SpawnPalette))]
}
