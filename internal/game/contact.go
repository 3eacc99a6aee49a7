package game

import "math"

// fallbackNormal is used when two centres coincide and the contact axis is undefined.
var fallbackNormal = Vec2{X: 1, Y: 0}

// Contact describes one overlapping body pair for the current frame.
// A and B point into the simulation's body slice and must not be kept past the step.
type Contact struct {
	A *Body
	B *Body

	Start  Vec2 // on B's circumference, towards A
	End    Vec2 // on A's circumference, towards B
	Normal Vec2 // unit vector from A's centre towards B's centre
	Depth  float64
}

// Detect reports whether a and b overlap and, if so, the contact geometry.
// Exactly touching bodies produce a contact of zero depth.
func Detect(a, b *Body) (Contact, bool) {
	ab := b.Position.Minus(a.Position)
	radiusSum := a.Radius + b.Radius

	if ab.MagnitudeSquared() > radiusSum*radiusSum {
		return Contact{}, false
	}

	normal := ab.Normalize()
	if normal.IsZero() {
		normal = fallbackNormal
	}

	c := Contact{
		A:      a,
		B:      b,
		Normal: normal,
		Start:  b.Position.Minus(normal.Times(b.Radius)),
		End:    a.Position.Plus(normal.Times(a.Radius)),
	}
	c.Depth = c.End.Minus(c.Start).Magnitude()
	if math.IsNaN(c.Depth) || math.IsInf(c.Depth, 0) {
		return Contact{}, false
	}
	return c, true
}

// ResolvePenetration pushes the bodies apart along the normal, weighted by inverse mass.
func (c *Contact) ResolvePenetration() {
	total := c.A.InvMass + c.B.InvMass
	if total == 0 || math.IsNaN(c.Depth) || math.IsInf(c.Depth, 0) {
		return
	}

	da := c.Depth / total * c.A.InvMass
	db := c.Depth / total * c.B.InvMass

	c.A.Position = c.A.Position.Minus(c.Normal.Times(da))
	c.B.Position = c.B.Position.Plus(c.Normal.Times(db))
}

// ResolveCollision corrects the overlap and then applies a normal impulse
// using the less elastic body's restitution.
func (c *Contact) ResolveCollision() {
	c.ResolvePenetration()

	total := c.A.InvMass + c.B.InvMass
	if total == 0 {
		return
	}

	e := math.Min(c.A.Restitution, c.B.Restitution)
	vn := c.A.Velocity.Minus(c.B.Velocity).Dot(c.Normal)

	magnitude := -(1 + e) * vn / total
	j := c.Normal.Times(magnitude)

	c.A.ApplyImpulse(j)
	c.B.ApplyImpulse(j.Invert())
}

// ClosingSpeed is the relative speed of the pair along the contact normal.
func (c *Contact) ClosingSpeed() float64 {
	return math.Abs(c.A.Velocity.Minus(c.B.Velocity).Dot(c.Normal))
}
