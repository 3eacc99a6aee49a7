package game

import (
	"math"
	"testing"
)

func TestNormalizeZeroVector(t *testing.T) {
	n := Vec2{}.Normalize()
	if !n.IsZero() {
		t.Errorf("Zero vector should normalize to zero, got (%.4f,%.4f)", n.X, n.Y)
	}
	if !near(NewVec2(3, 4).Normalize().Magnitude(), 1) {
		t.Error("Normalized vector should have unit length")
	}
	if NewVec2(math.NaN(), 0).IsFinite() || NewVec2(0, math.Inf(1)).IsFinite() {
		t.Error("NaN and Inf components are not finite")
	}
}

func TestIntegratorAppliesDrag(t *testing.T) {
	b := NewBody(1, NewVec2(0, 0), 15, "red", 1)
	b.Velocity = NewVec2(10, 0)

	Integrator{Damping: 0.8}.Integrate(&b, 0.5)

	if !near(b.Acceleration.X, -8) {
		t.Errorf("Acceleration should be -v*damping: got %.4f", b.Acceleration.X)
	}
	if !near(b.Velocity.X, 6) {
		t.Errorf("Velocity after drag: want 6, got %.4f", b.Velocity.X)
	}
	// Semi-implicit: position uses the updated velocity.
	if !near(b.Position.X, 3) {
		t.Errorf("Position: want 3, got %.4f", b.Position.X)
	}
}

func TestIntegratorSkipsStatic(t *testing.T) {
	b := NewBody(1, NewVec2(5, 5), 15, "gray", 0)
	b.Velocity = NewVec2(10, 10)

	Integrator{Damping: 0.8}.Integrate(&b, 1)

	if b.Position != NewVec2(5, 5) || b.Velocity != NewVec2(10, 10) {
		t.Errorf("Static body was integrated: pos=%v vel=%v", b.Position, b.Velocity)
	}
}

func TestCushionBounce(t *testing.T) {
	table := StandardTable()

	b := NewBody(1, NewVec2(10, 240), 15, "red", 1)
	b.Velocity = NewVec2(-100, 0)

	if !table.Constrain(&b, 0.9) {
		t.Fatal("Expected a cushion hit")
	}
	if !near(b.Position.X, 55) {
		t.Errorf("Body should be clamped to the left cushion: x=%.4f", b.Position.X)
	}
	if !near(b.Velocity.X, 90) {
		t.Errorf("Velocity should reflect with wall restitution: vx=%.4f", b.Velocity.X)
	}
}

func TestTopCushionBounce(t *testing.T) {
	table := StandardTable()

	b := NewBody(1, NewVec2(450, 30), 15, "red", 1)
	b.Velocity = NewVec2(20, -100)

	if !table.Constrain(&b, 0.9) {
		t.Fatal("Expected a cushion hit")
	}
	if !near(b.Position.Y, TableBorder+15) {
		t.Errorf("Body should be clamped to the top cushion: y=%.4f", b.Position.Y)
	}
	if !near(b.Velocity.Y, 90) || !near(b.Velocity.X, 20) {
		t.Errorf("Only vy should reflect: v=(%.4f,%.4f)", b.Velocity.X, b.Velocity.Y)
	}
	if !near(b.Position.X, 450) {
		t.Errorf("x should be untouched: %.4f", b.Position.X)
	}
}

func TestCornerClampsBothAxes(t *testing.T) {
	table := StandardTable()

	b := NewBody(1, NewVec2(1000, 600), 15, "red", 1)
	b.Velocity = NewVec2(50, 30)

	table.Constrain(&b, 0.9)

	if !near(b.Position.X, 845) || !near(b.Position.Y, 425) {
		t.Errorf("Body should be clamped into the corner: (%.2f,%.2f)", b.Position.X, b.Position.Y)
	}
	if !near(b.Velocity.X, -45) || !near(b.Velocity.Y, -27) {
		t.Errorf("Both components should reflect: (%.2f,%.2f)", b.Velocity.X, b.Velocity.Y)
	}

	in := table.Inner()
	if b.Position.X+b.Radius > in.Right || b.Position.Y+b.Radius > in.Bottom {
		t.Error("Body extends past the cushions after constraint")
	}
}

func TestConstrainLeavesInteriorBodyAlone(t *testing.T) {
	table := StandardTable()
	b := NewBody(1, NewVec2(450, 240), 15, "red", 1)
	b.Velocity = NewVec2(12, -7)

	if table.Constrain(&b, 0.9) {
		t.Error("Body in the middle of the table should not hit a cushion")
	}
	if b.Position != NewVec2(450, 240) || b.Velocity != NewVec2(12, -7) {
		t.Errorf("Interior body changed: pos=%v vel=%v", b.Position, b.Velocity)
	}
}

func TestConstrainSkipsStatic(t *testing.T) {
	table := StandardTable()
	b := NewBody(1, NewVec2(-100, 240), 15, "gray", 0)

	if table.Constrain(&b, 0.9) {
		t.Error("Static bodies are not constrained")
	}
	if b.Position.X != -100 {
		t.Errorf("Static body moved: x=%.2f", b.Position.X)
	}
}
