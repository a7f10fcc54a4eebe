package game

import (
	"reflect"
	"sort"
	"time"

	"github.com/farlane23/mazeduel-backend/internal"
)

// =============================================================================
// SNAPSHOT / DELTA PIPELINE
// =============================================================================

// ticksToMs converts a tick count into wall milliseconds.
func ticksToMs(ticks int64) int64 {
	return ticks * internal.TickInterval.Milliseconds()
}

// BuildSnapshot flattens the authoritative room state into the wire shape.
// now is the room tick, wallNow the wall clock used for client latency
// telemetry and absolute deadlines.
func BuildSnapshot(roomID string, g *GameState, pc *PhaseClock, sessions []internal.SessionInfo, now int64, wallNow time.Time) *internal.Snapshot {
	snap := &internal.Snapshot{
		RoomID:              roomID,
		Phase:               pc.Phase,
		UpdatedAt:           wallNow.UnixMilli(),
		CountdownDurationMs: internal.CountdownPhaseDuration.Milliseconds(),
		PrepDurationMs:      internal.PrepPhaseDuration.Milliseconds(),
		ExploreDurationMs:   internal.ExplorePhaseDuration.Milliseconds(),
		Sessions:            sessions,
	}

	if remaining := pc.Remaining(now); remaining >= 0 && !pc.Paused {
		snap.PhaseEndsAt = wallNow.UnixMilli() + ticksToMs(remaining)
	}
	if pc.Paused {
		snap.Paused = true
		snap.PauseReason = string(pc.Reason)
		snap.PausePhase = pc.PausePhase
		graceLeft := pc.PauseRemaining(now)
		snap.PauseExpiresAt = wallNow.UnixMilli() + ticksToMs(graceLeft)
		snap.PauseRemainingMs = ticksToMs(graceLeft)
	}

	if g == nil {
		return snap
	}

	snap.MazeSize = g.Maze.Size
	snap.TargetScore = g.TargetScore
	snap.PointCompensation = g.CompensationAward()

	p := g.Player
	snap.Player = &internal.PlayerView{
		Position:       p.Position,
		Velocity:       p.Velocity,
		Angle:          p.Angle,
		PredictionHits: p.PredictionHits,
		Score:          p.Score,
		Slowed:         p.SlowUntil > 0 && now < p.SlowUntil,
	}

	o := g.Owner
	cooldownMs := int64(0)
	if o.EditCooldownUntil > now {
		cooldownMs = wallNow.UnixMilli() + ticksToMs(o.EditCooldownUntil-now)
	}
	points := make([]internal.Cell, 0, len(g.Points))
	for c := range g.Points {
		points = append(points, c)
	}
	sortCells(points)
	snap.Owner = &internal.OwnerView{
		WallStock:            o.WallStock,
		WallRemoveLeft:       o.WallRemoveLeft,
		TrapCharges:          o.TrapCharges,
		EditCooldownUntil:    cooldownMs,
		EditCooldownDuration: internal.OwnerEditCooldown.Milliseconds(),
		ForbiddenDistance:    o.ForbiddenDistance,
		PredictionLimit:      o.PredictionLimit,
		PredictionHits:       p.PredictionHits,
		PredictionMarks:      append([]internal.PredictionMark(nil), o.PredictionMarks...),
		Traps:                append([]internal.Trap(nil), o.Traps...),
		Points:               points,
	}

	cells := make([]internal.MazeCell, len(g.Maze.Cells))
	copy(cells, g.Maze.Cells)
	snap.Maze = &internal.MazeView{
		Seed:  g.Maze.Seed,
		Start: g.Maze.Start,
		Goal:  g.Maze.Goal,
		Cells: cells,
	}

	return snap
}

func sortCells(cs []internal.Cell) {
	// Stable wire order keeps snapshots comparable across builds.
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Y != cs[j].Y {
			return cs[i].Y < cs[j].Y
		}
		return cs[i].X < cs[j].X
	})
}

// DiffSnapshot derives the minimal delta from prev to cur. Returns nil when
// nothing observable changed besides the timestamp.
func DiffSnapshot(prev, cur *internal.Snapshot) *internal.Delta {
	d := &internal.Delta{UpdatedAt: cur.UpdatedAt}
	changed := false

	if prev.Phase != cur.Phase {
		d.Phase = &cur.Phase
		changed = true
	}
	if prev.PhaseEndsAt != cur.PhaseEndsAt {
		d.PhaseEndsAt = &cur.PhaseEndsAt
		changed = true
	}
	if prev.MazeSize != cur.MazeSize {
		d.MazeSize = &cur.MazeSize
		changed = true
	}
	if prev.TargetScore != cur.TargetScore {
		d.TargetScore = &cur.TargetScore
		changed = true
	}
	if prev.Paused != cur.Paused {
		d.Paused = &cur.Paused
		changed = true
	}
	if prev.PauseReason != cur.PauseReason {
		d.PauseReason = &cur.PauseReason
		changed = true
	}
	if prev.PauseExpiresAt != cur.PauseExpiresAt {
		d.PauseExpiresAt = &cur.PauseExpiresAt
		changed = true
	}
	if prev.PauseRemainingMs != cur.PauseRemainingMs {
		d.PauseRemainingMs = &cur.PauseRemainingMs
		changed = true
	}
	if prev.PausePhase != cur.PausePhase {
		d.PausePhase = &cur.PausePhase
		changed = true
	}
	if !reflect.DeepEqual(prev.Sessions, cur.Sessions) {
		d.Sessions = cur.Sessions
		changed = true
	}
	if !reflect.DeepEqual(prev.Player, cur.Player) {
		d.Player = cur.Player
		changed = true
	}
	if !reflect.DeepEqual(prev.Owner, cur.Owner) {
		d.Owner = cur.Owner
		changed = true
	}

	switch {
	case prev.Maze == nil && cur.Maze != nil:
		d.Maze = cur.Maze
		changed = true
	case prev.Maze != nil && cur.Maze != nil:
		for i := range cur.Maze.Cells {
			if cur.Maze.Cells[i] != prev.Maze.Cells[i] {
				d.CellsChanged = append(d.CellsChanged, cur.Maze.Cells[i])
			}
		}
		if len(d.CellsChanged) > 0 {
			changed = true
		}
	}

	if prev.Owner != nil && cur.Owner != nil {
		d.TrapsRemoved = removedTraps(prev.Owner.Traps, cur.Owner.Traps)
		d.MarksRemoved = removedMarks(prev.Owner.PredictionMarks, cur.Owner.PredictionMarks)
		d.PointsRemoved = removedCells(prev.Owner.Points, cur.Owner.Points)
		if len(d.TrapsRemoved)+len(d.MarksRemoved)+len(d.PointsRemoved) > 0 {
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return d
}

// removedTraps lists cells whose trap was live in prev but consumed or gone
// in cur.
func removedTraps(prev, cur []internal.Trap) []internal.Cell {
	var out []internal.Cell
	for _, pt := range prev {
		if pt.Consumed {
			continue
		}
		live := false
		for _, ct := range cur {
			if ct.Cell == pt.Cell && !ct.Consumed {
				live = true
				break
			}
		}
		if !live {
			out = append(out, pt.Cell)
		}
	}
	return out
}

func removedMarks(prev, cur []internal.PredictionMark) []internal.Cell {
	var out []internal.Cell
	for _, pm := range prev {
		if !pm.Active {
			continue
		}
		live := false
		for _, cm := range cur {
			if cm.Cell == pm.Cell && cm.Active {
				live = true
				break
			}
		}
		if !live {
			out = append(out, pm.Cell)
		}
	}
	return out
}

func removedCells(prev, cur []internal.Cell) []internal.Cell {
	set := make(map[internal.Cell]bool, len(cur))
	for _, c := range cur {
		set[c] = true
	}
	var out []internal.Cell
	for _, c := range prev {
		if !set[c] {
			out = append(out, c)
		}
	}
	return out
}

// deltaTooLarge reports whether sending the delta would not beat a full
// snapshot (more than half the grid changed).
func deltaTooLarge(d *internal.Delta, mazeSize int) bool {
	if d == nil || mazeSize == 0 {
		return false
	}
	return len(d.CellsChanged) > mazeSize*mazeSize/2
}
