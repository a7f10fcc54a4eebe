package internal

import (
	"math"
	"time"
)

const (
	TickInterval   = 50 * time.Millisecond
	TicksPerSecond = int64(time.Second / TickInterval)

	CountdownPhaseDuration = 3 * time.Second
	PrepPhaseDuration      = 60 * time.Second
	ExplorePhaseDuration   = 300 * time.Second

	MoveSpeed           = 2.0           // cells per second
	TurnSpeed           = 2 * math.Pi   // radians per second
	PlayerRadius        = 0.35          // cells
	TrapSpeedMultiplier = 0.4
	TrapDurationDivisor = 5
	MaxActiveTraps      = 2

	OwnerEditCooldown        = 1 * time.Second
	DefaultForbiddenDistance = 2 // Chebyshev radius, cells
	DefaultPredictionLimit   = 3
	InitialTrapCharges       = 2
	InitialWallRemoves       = 1

	WallStockSize20 = 48
	WallStockSize40 = 140

	TargetPointRate    = 0.65
	GoalBonusDivisor   = 5
	CompensationRate   = 0.20
	PredictionWallProb = 0.7

	InputStaleAfter = 1 * time.Second

	PingInterval     = 5 * time.Second
	IdleTimeout      = 15 * time.Second
	DisconnectGrace  = 60 * time.Second
	AttachTimeout    = 5 * time.Second
	RoomIdleEviction = 5 * time.Minute
)

// DurationTicks converts a wall duration into simulation ticks.
func DurationTicks(d time.Duration) int64 {
	return int64(d / TickInterval)
}

type GamePhase string

const (
	PhaseLobby     GamePhase = "lobby"
	PhaseCountdown GamePhase = "countdown"
	PhasePrep      GamePhase = "prep"
	PhaseExplore   GamePhase = "explore"
	PhaseResult    GamePhase = "result"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RolePlayer Role = "player"
)

// Vector2 is a position or velocity in maze-cell units, origin at the
// top-left cell corner.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cell is an integer cell coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Chebyshev returns the Chebyshev (chessboard) distance to other.
func (c Cell) Chebyshev(other Cell) int {
	dx := c.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := c.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// CellOf maps a continuous position to the cell containing it.
func CellOf(p Vector2) Cell {
	return Cell{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

type WallSide string

const (
	SideTop    WallSide = "top"
	SideRight  WallSide = "right"
	SideBottom WallSide = "bottom"
	SideLeft   WallSide = "left"
)

// Edge identifies one wall slot of one cell. The same physical edge can be
// named from either incident cell; MazeState keeps both views in sync.
type Edge struct {
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Side WallSide `json:"side"`
}

type Walls struct {
	Top    bool `json:"top"`
	Right  bool `json:"right"`
	Bottom bool `json:"bottom"`
	Left   bool `json:"left"`
}

type MazeCell struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Walls Walls `json:"walls"`
}

type MazeState struct {
	Size  int        `json:"size"`
	Seed  string     `json:"seed"`
	Cells []MazeCell `json:"cells"` // row-major, length Size*Size
	Start Cell       `json:"start"`
	Goal  Cell       `json:"goal"`
}

type PlayerState struct {
	Position       Vector2 `json:"position"`
	Velocity       Vector2 `json:"velocity"`
	Angle          float64 `json:"angle"` // radians, (-pi, pi]
	PredictionHits int     `json:"predictionHits"`
	Score          int     `json:"score"`
	SlowUntil      int64   `json:"slowUntil,omitempty"` // tick, 0 = not slowed
}

type Trap struct {
	Cell         Cell  `json:"cell"`
	PlacedAtTick int64 `json:"placedAtTick"`
	Consumed     bool  `json:"consumed"`
}

type PredictionMark struct {
	Cell   Cell `json:"cell"`
	Active bool `json:"active"`
}

type OwnerState struct {
	WallStock         int              `json:"wallStock"`
	WallRemoveLeft    int              `json:"wallRemoveLeft"`
	TrapCharges       int              `json:"trapCharges"`
	EditCooldownUntil int64            `json:"editCooldownUntil"` // tick
	ForbiddenDistance int              `json:"forbiddenDistance"`
	PredictionLimit   int              `json:"predictionLimit"`
	PredictionMarks   []PredictionMark `json:"predictionMarks"`
	Traps             []Trap           `json:"traps"`
}

// ActivePredictions counts marks the player has not collected yet.
func (o *OwnerState) ActivePredictions() int {
	n := 0
	for _, m := range o.PredictionMarks {
		if m.Active {
			n++
		}
	}
	return n
}

// ActiveTraps counts placed, not yet triggered traps.
func (o *OwnerState) ActiveTraps() int {
	n := 0
	for _, t := range o.Traps {
		if !t.Consumed {
			n++
		}
	}
	return n
}

type SessionInfo struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Nick string `json:"nick"`
}
