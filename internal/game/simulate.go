package game

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/farlane23/mazeduel-backend/internal"
)

// =============================================================================
// SIMULATION
// =============================================================================

// GameState is the materialised per-room game world: maze, both sides'
// state, and the remaining point entities. It is only ever touched from the
// owning room's goroutine (or directly in tests).
type GameState struct {
	Maze        *internal.MazeState
	Player      *internal.PlayerState
	Owner       *internal.OwnerState
	Points      map[internal.Cell]bool
	TargetScore int
	GoalBonus   int
	Seed        string
}

// PlayerIntent is the most recent movement input. ReceivedAt lets the
// simulator treat stale input as zero.
type PlayerIntent struct {
	Forward    float64
	Turn       float64
	Seq        int64
	ReceivedAt int64 // tick
}

// StepResult reports the side effects of one simulation tick.
type StepResult struct {
	GoalReached   bool
	TrapTriggered *internal.Cell
	MarksHit      []internal.Cell
	PointsTaken   []internal.Cell
	WallsAwarded  int
	TrapsAwarded  int
	Moved         bool
}

// NewGameState materialises the world for a generated maze: owner resources
// by maze size, player spawned at start, one point on every walkable cell
// except start and goal.
func NewGameState(maze *internal.MazeState) *GameState {
	wallStock := internal.WallStockSize20
	if maze.Size == 40 {
		wallStock = internal.WallStockSize40
	}

	points := make(map[internal.Cell]bool)
	for y := 0; y < maze.Size; y++ {
		for x := 0; x < maze.Size; x++ {
			c := internal.Cell{X: x, Y: y}
			if c == maze.Start || c == maze.Goal {
				continue
			}
			points[c] = true
		}
	}

	target := int(math.Ceil(float64(len(points)) * internal.TargetPointRate))
	goalBonus := 0
	if target > 0 {
		goalBonus = (target + internal.GoalBonusDivisor - 1) / internal.GoalBonusDivisor
	}

	return &GameState{
		Maze: maze,
		Player: &internal.PlayerState{
			Position: internal.Vector2{X: float64(maze.Start.X) + 0.5, Y: float64(maze.Start.Y) + 0.5},
			Angle:    0,
		},
		Owner: &internal.OwnerState{
			WallStock:         wallStock,
			WallRemoveLeft:    internal.InitialWallRemoves,
			TrapCharges:       internal.InitialTrapCharges,
			ForbiddenDistance: internal.DefaultForbiddenDistance,
			PredictionLimit:   internal.DefaultPredictionLimit,
		},
		Points:      points,
		TargetScore: target,
		GoalBonus:   goalBonus,
		Seed:        maze.Seed,
	}
}

// CompensationAward is the score granted to a mid-run player whose opponent
// abandons the game.
func (g *GameState) CompensationAward() int {
	return int(math.Ceil(float64(g.TargetScore) * internal.CompensationRate))
}

// Step advances the player by one tick. Order is fixed: input sampling,
// angle, velocity, axis-separated collision, trap trigger, prediction
// pickup, point pickup, goal check. Deterministic given identical state and
// input.
func (g *GameState) Step(in PlayerIntent, now int64, phaseRemaining int64) StepResult {
	var res StepResult
	p := g.Player
	dt := float64(internal.TickInterval.Seconds())

	forward, turn := in.Forward, in.Turn
	if now-in.ReceivedAt > internal.DurationTicks(internal.InputStaleAfter) {
		forward, turn = 0, 0
	}
	forward = clamp(forward, -1, 1)
	turn = clamp(turn, -1, 1)

	p.Angle = wrapAngle(p.Angle + turn*internal.TurnSpeed*dt)

	speed := internal.MoveSpeed
	if p.SlowUntil > 0 && now < p.SlowUntil {
		speed *= internal.TrapSpeedMultiplier
	} else if p.SlowUntil > 0 {
		p.SlowUntil = 0
	}
	p.Velocity = internal.Vector2{
		X: math.Cos(p.Angle) * forward * speed,
		Y: math.Sin(p.Angle) * forward * speed,
	}

	before := p.Position
	p.Position, p.Velocity = moveAxes(g.Maze, p.Position, p.Velocity, dt)
	res.Moved = p.Position != before

	cell := internal.CellOf(p.Position)

	// Trap trigger.
	for i := range g.Owner.Traps {
		t := &g.Owner.Traps[i]
		if t.Consumed || t.Cell != cell {
			continue
		}
		t.Consumed = true
		p.SlowUntil = now + phaseRemaining/internal.TrapDurationDivisor
		c := t.Cell
		res.TrapTriggered = &c
	}

	// Prediction pickup with seeded bonus roll.
	for i := range g.Owner.PredictionMarks {
		m := &g.Owner.PredictionMarks[i]
		if !m.Active || m.Cell != cell {
			continue
		}
		m.Active = false
		p.PredictionHits++
		res.MarksHit = append(res.MarksHit, m.Cell)
		if bonusRoll(g.Seed, now, i) < internal.PredictionWallProb {
			g.Owner.WallStock++
			res.WallsAwarded++
		} else {
			g.Owner.TrapCharges++
			res.TrapsAwarded++
		}
	}

	// Point pickup.
	if g.Points[cell] {
		delete(g.Points, cell)
		p.Score++
		res.PointsTaken = append(res.PointsTaken, cell)
	}

	// Goal check.
	if cell == g.Maze.Goal {
		p.Score += g.GoalBonus
		res.GoalReached = true
	}

	return res
}

// bonusRoll yields the deterministic prediction-bonus roll for
// (roomSeed, tick, markIndex).
func bonusRoll(seed string, tick int64, markIndex int) float64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(tick >> (8 * i))
		buf[8+i] = byte(int64(markIndex) >> (8 * i))
	}
	h.Write(buf[:])
	return rand.New(rand.NewSource(int64(h.Sum64()))).Float64()
}

// moveAxes advances X then Y independently. A blocked axis is binary-searched
// to the largest collision-free offset and its velocity zeroed, which gives
// wall sliding on the other axis.
func moveAxes(m *internal.MazeState, pos, vel internal.Vector2, dt float64) (internal.Vector2, internal.Vector2) {
	pos.X = moveAxis(m, pos, vel.X*dt, true, &vel.X)
	pos.Y = moveAxis(m, pos, vel.Y*dt, false, &vel.Y)
	return pos, vel
}

func moveAxis(m *internal.MazeState, pos internal.Vector2, delta float64, xAxis bool, vel *float64) float64 {
	cur := pos.X
	if !xAxis {
		cur = pos.Y
	}
	if delta == 0 {
		return cur
	}
	try := func(offset float64) bool {
		p := pos
		if xAxis {
			p.X = cur + offset
		} else {
			p.Y = cur + offset
		}
		return !Collides(m, p, internal.PlayerRadius)
	}
	if try(delta) {
		return cur + delta
	}
	// 12 iterations resolves the contact to sub-millimetre precision.
	lo, hi := 0.0, 1.0
	for i := 0; i < 12; i++ {
		mid := (lo + hi) / 2
		if try(delta * mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	*vel = 0
	return cur + delta*lo
}

// Collides reports whether a disc of radius r at p intersects any solid edge
// (or lies outside the grid).
func Collides(m *internal.MazeState, p internal.Vector2, r float64) bool {
	size := float64(m.Size)
	if p.X < 0 || p.Y < 0 || p.X > size || p.Y > size {
		return true
	}

	minX := int(math.Floor(p.X - r))
	maxX := int(math.Floor(p.X + r))
	minY := int(math.Floor(p.Y - r))
	maxY := int(math.Floor(p.Y + r))

	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			cell := m.CellAt(internal.Cell{X: cx, Y: cy})
			if cell == nil {
				continue
			}
			x0, y0 := float64(cx), float64(cy)
			x1, y1 := x0+1, y0+1
			if cell.Walls.Top && discHitsSegment(p, r, x0, y0, x1, y0) {
				return true
			}
			if cell.Walls.Bottom && discHitsSegment(p, r, x0, y1, x1, y1) {
				return true
			}
			if cell.Walls.Left && discHitsSegment(p, r, x0, y0, x0, y1) {
				return true
			}
			if cell.Walls.Right && discHitsSegment(p, r, x1, y0, x1, y1) {
				return true
			}
		}
	}
	return false
}

func discHitsSegment(p internal.Vector2, r, ax, ay, bx, by float64) bool {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((p.X-ax)*dx + (p.Y-ay)*dy) / lenSq
		t = clamp(t, 0, 1)
	}
	cx, cy := ax+t*dx, ay+t*dy
	ddx, ddy := p.X-cx, p.Y-cy
	return ddx*ddx+ddy*ddy < r*r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapAngle normalises to (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
