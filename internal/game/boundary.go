package game

// Rect is an axis-aligned rectangle in table coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Table is the playing surface: an outer rectangle anchored at the origin and
// a cushion border inset on every side.
type Table struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Border float64 `json:"border"`
}

// Inner returns the playable area inside the cushions.
func (t Table) Inner() Rect {
	return Rect{
		Left:   t.Border,
		Top:    t.Border,
		Right:  t.Width - t.Border,
		Bottom: t.Height - t.Border,
	}
}

// Constrain keeps b inside the cushions, reflecting the velocity component
// normal to any wall it reached. Returns true when a wall was hit.
// Static bodies are left alone.
func (t Table) Constrain(b *Body, wallRestitution float64) bool {
	if b.IsStatic() {
		return false
	}

	in := t.Inner()
	hit := false

	if b.Position.X-b.Radius <= in.Left {
		b.Position.X = in.Left + b.Radius
		b.Velocity.X *= -wallRestitution
		hit = true
	} else if b.Position.X+b.Radius >= in.Right {
		b.Position.X = in.Right - b.Radius
		b.Velocity.X *= -wallRestitution
		hit = true
	}

	if b.Position.Y-b.Radius <= in.Top {
		b.Position.Y = in.Top + b.Radius
		b.Velocity.Y *= -wallRestitution
		hit = true
	} else if b.Position.Y+b.Radius >= in.Bottom {
		b.Position.Y = in.Bottom - b.Radius
		b.Velocity.Y *= -wallRestitution
		hit = true
	}

	return hit
}
