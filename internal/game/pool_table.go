package game

// Pocket is a fixed circular capture region on the table.
type Pocket struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Contains reports whether b overlaps the pocket's capture circle.
func (p Pocket) Contains(b *Body) bool {
	r := b.Radius + p.Radius
	return b.Position.Minus(p.Position).MagnitudeSquared() <= r*r
}

// FormationSlot is one body of the initial rack.
type FormationSlot struct {
	Position Vec2   `json:"position"`
	Color    string `json:"color"`
}

// Scenario is the immutable setup of a table: geometry, pockets, where the
// primary body (re)enters and the formation regenerated on every reset.
type Scenario struct {
	Table        Table           `json:"table"`
	Pockets      []Pocket        `json:"pockets"`
	StartPoint   Vec2            `json:"start_point"`
	Formation    []FormationSlot `json:"formation"`
	PrimaryColor string          `json:"primary_color"`
	BodyRadius   float64         `json:"body_radius"`
	BodyMass     float64         `json:"body_mass"`
}

// SpawnPalette is the colour set used for bodies spawned without an explicit colour.
var SpawnPalette = []string{"yellow", "black", "orange", "pink", "red", "blue", "purple"}

// StandardTable returns the 900x480 practice table with a 40 unit cushion border.
func StandardTable() Table {
	return Table{Width: TableWidth, Height: TableHeight, Border: TableBorder}
}

// StandardPockets places six pockets: three along the top rail and three along the bottom.
func StandardPockets(t Table, radius float64) []Pocket {
	return []Pocket{
		{ID: 0, Position: NewVec2(PocketInset, PocketInset), Radius: radius},
		{ID: 1, Position: NewVec2(t.Width/2, PocketInset), Radius: radius},
		{ID: 2, Position: NewVec2(t.Width-PocketInset, PocketInset), Radius: radius},
		{ID: 3, Position: NewVec2(PocketInset, t.Height-PocketInset), Radius: radius},
		{ID: 4, Position: NewVec2(t.Width/2, t.Height-PocketInset), Radius: radius},
		{ID: 5, Position: NewVec2(t.Width-PocketInset, t.Height-PocketInset), Radius: radius},
	}
}

// StandardRack returns the 15-ball triangle, apex towards the primary body.
func StandardRack() []FormationSlot {
	return []FormationSlot{
		// Row 1
		{NewVec2(633, 244), "black"},
		// Row 2
		{NewVec2(654, 234), "yellow"},
		{NewVec2(654, 259), "blue"},
		// Row 3
		{NewVec2(675, 216), "magenta"},
		{NewVec2(677, 239), "purple"},
		{NewVec2(675, 269), "pink"},
		// Row 4
		{NewVec2(699, 195), "beige"},
		{NewVec2(700, 223), "gold"},
		{NewVec2(703, 252), "orange"},
		{NewVec2(701, 285), "violet"},
		// Row 5
		{NewVec2(719, 185), "darkpurple"},
		{NewVec2(723, 210), "skyblue"},
		{NewVec2(726, 234), "red"},
		{NewVec2(728, 267), "darkgray"},
		{NewVec2(730, 294), "gray"},
	}
}

// StandardScenario is the default practice setup.
func StandardScenario() Scenario {
	t := StandardTable()
	return Scenario{
		Table:        t,
		Pockets:      StandardPockets(t, PocketRadius),
		StartPoint:   NewVec2(t.Width/4, StartY),
		Formation:    StandardRack(),
		PrimaryColor: "white",
		BodyRadius:   BallRadius,
		BodyMass:     BallMass,
	}
}
