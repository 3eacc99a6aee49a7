package game

// Integrator advances bodies under linear drag (acceleration = -velocity * Damping).
type Integrator struct {
	Damping float64
}

// Integrate moves a non-static body forward by dt with semi-implicit Euler.
func (in Integrator) Integrate(b *Body, dt float64) {
	if b.IsStatic() {
		return
	}
	b.Acceleration = b.Velocity.Times(-in.Damping)
	b.Velocity = b.Velocity.Plus(b.Acceleration.Times(dt))
	b.Position = b.Position.Plus(b.Velocity.Times(dt))
}
