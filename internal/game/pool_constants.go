package game

// Practice table defaults. Values match the reference table the browser client renders.

const (
	TableWidth    = 900.0
	TableHeight   = 480.0
	TableBorder   = 40.0
	PocketInset   = 35.0 // pocket centre distance from the outer table edge
	PocketRadius  = 20.0 // capture radius
	BallRadius    = 15.0
	BallMass      = 1.0
	MaxBodyRadius = 100.0 // spawned bodies must fit between opposite cushions
	StartY        = 250.0 // primary re-entry y; x is a quarter of the table width

	Damping         = 0.8 // linear drag coefficient used by the integrator
	WallRestitution = 0.9
	CollisionLoss   = 0.9 // global velocity scale applied once per frame with contacts
	ShotPowerScale  = 20.0
	MaxShotSpeed    = 20000.0

	// Inverse masses below this are treated as zero (static body).
	massEpsilon = 1e-9
)
