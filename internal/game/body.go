package game

import "math"

// BodyID identifies a body for its whole lifetime on the table.
type BodyID int

// Role distinguishes the player-controlled body from the others.
type Role string

const (
	RoleObject  Role = "object"
	RolePrimary Role = "primary"
)

// Body is the physical state of one circular particle.
type Body struct {
	ID               BodyID  `json:"id"`
	Role             Role    `json:"role"`
	Position         Vec2    `json:"position"`
	Velocity         Vec2    `json:"velocity"`
	Acceleration     Vec2    `json:"acceleration"`
	Radius           float64 `json:"radius"`
	Mass             float64 `json:"mass"`
	InvMass          float64 `json:"inv_mass"`
	Restitution      float64 `json:"restitution"`
	Color            string  `json:"color"`
	MarkedForRemoval bool    `json:"-"`
}

// NewBody creates a movable object body, or a static one when mass is zero.
func NewBody(id BodyID, pos Vec2, radius float64, color string, mass float64) Body {
	b := Body{
		ID:          id,
		Role:        RoleObject,
		Position:    pos,
		Radius:      radius,
		Mass:        mass,
		Restitution: 1.0,
		Color:       color,
	}
	if mass > massEpsilon {
		b.InvMass = 1.0 / mass
	}
	return b
}

// IsStatic reports whether the body has infinite mass.
func (b *Body) IsStatic() bool {
	return math.Abs(b.InvMass) < massEpsilon
}

func (b *Body) IsPrimary() bool {
	return b.Role == RolePrimary
}

// ApplyImpulse changes velocity by j scaled by inverse mass. Static bodies ignore it.
func (b *Body) ApplyImpulse(j Vec2) {
	if b.IsStatic() {
		return
	}
	b.Velocity = b.Velocity.Plus(j.Times(b.InvMass))
}

// Speed returns the magnitude of the body's velocity.
func (b *Body) Speed() float64 {
	return b.Velocity.Magnitude()
}
