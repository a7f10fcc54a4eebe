package game

import (
	"math"

	"github.com/farlane23/mazeduel-backend/internal"
)

// =============================================================================
// EDIT VALIDATION
// =============================================================================

// EditError carries one of the closed wire error codes back to the offending
// session; the room itself continues unperturbed.
type EditError struct {
	Code internal.ErrCode
}

func (e *EditError) Error() string { return string(e.Code) }

func editErr(code internal.ErrCode) error { return &EditError{Code: code} }

// ErrCodeOf extracts the wire code from a validation error.
func ErrCodeOf(err error) internal.ErrCode {
	if ee, ok := err.(*EditError); ok {
		return ee.Code
	}
	return internal.ErrInvalidArg
}

func (g *GameState) playerCell() internal.Cell {
	return internal.CellOf(g.Player.Position)
}

// withinForbidden reports whether the cell is inside the owner's forbidden
// Chebyshev radius around the player. Distance exactly equal to the radius
// is still forbidden.
func (g *GameState) withinForbidden(c internal.Cell) bool {
	return g.playerCell().Chebyshev(c) <= g.Owner.ForbiddenDistance
}

func (g *GameState) edgeWithinForbidden(e internal.Edge) bool {
	own, other := g.Maze.EdgeCells(e)
	if g.withinForbidden(own) {
		return true
	}
	return other != nil && g.withinForbidden(*other)
}

// ApplyOwnerEdit validates an O_EDIT command against the current state and
// applies it on success. Successful edits arm the owner edit cooldown.
func ApplyOwnerEdit(g *GameState, pc *PhaseClock, edit internal.OwnerEdit, now int64) error {
	if g == nil || pc.Paused {
		return editErr(internal.ErrInvalidPhase)
	}

	switch edit.Action {
	case internal.EditPlaceWall:
		return applyPlaceWall(g, pc, edit.Edge, now)
	case internal.EditRemoveWall:
		return applyRemoveWall(g, pc, edit.Edge, now)
	case internal.EditPlaceTrap:
		return applyPlaceTrap(g, pc, edit.Cell, now)
	default:
		return editErr(internal.ErrInvalidArg)
	}
}

func applyPlaceWall(g *GameState, pc *PhaseClock, edge *internal.Edge, now int64) error {
	if pc.Phase != internal.PhasePrep && pc.Phase != internal.PhaseExplore {
		return editErr(internal.ErrInvalidPhase)
	}
	if edge == nil {
		return editErr(internal.ErrInvalidArg)
	}
	if !g.Maze.ValidEdge(*edge) {
		return editErr(internal.ErrOutOfBounds)
	}
	if now < g.Owner.EditCooldownUntil {
		return editErr(internal.ErrCooldown)
	}
	if g.Owner.WallStock <= 0 {
		return editErr(internal.ErrNoResource)
	}
	if g.Maze.HasWall(*edge) {
		return editErr(internal.ErrInvalidArg)
	}
	if g.edgeWithinForbidden(*edge) {
		return editErr(internal.ErrForbiddenArea)
	}

	// Hypothetical mutation: the wall must not cut goal off from start.
	g.Maze.SetWall(*edge, true)
	if !g.Maze.PathExists(g.Maze.Start, g.Maze.Goal) {
		g.Maze.SetWall(*edge, false)
		return editErr(internal.ErrDisconnectsMaze)
	}

	g.Owner.WallStock--
	armCooldown(g, now)
	return nil
}

func applyRemoveWall(g *GameState, pc *PhaseClock, edge *internal.Edge, now int64) error {
	if pc.Phase != internal.PhasePrep && pc.Phase != internal.PhaseExplore {
		return editErr(internal.ErrInvalidPhase)
	}
	if edge == nil {
		return editErr(internal.ErrInvalidArg)
	}
	if !g.Maze.ValidEdge(*edge) || g.Maze.BorderEdge(*edge) {
		return editErr(internal.ErrOutOfBounds)
	}
	if now < g.Owner.EditCooldownUntil {
		return editErr(internal.ErrCooldown)
	}
	if g.Owner.WallRemoveLeft <= 0 {
		return editErr(internal.ErrNoResource)
	}
	if !g.Maze.HasWall(*edge) {
		return editErr(internal.ErrInvalidArg)
	}

	g.Maze.SetWall(*edge, false)
	g.Owner.WallRemoveLeft--
	// The removed wall goes back into stock.
	g.Owner.WallStock++
	armCooldown(g, now)
	return nil
}

func applyPlaceTrap(g *GameState, pc *PhaseClock, cell *internal.Cell, now int64) error {
	if pc.Phase != internal.PhasePrep {
		return editErr(internal.ErrInvalidPhase)
	}
	if cell == nil {
		return editErr(internal.ErrInvalidArg)
	}
	if !g.Maze.InBounds(*cell) {
		return editErr(internal.ErrOutOfBounds)
	}
	if now < g.Owner.EditCooldownUntil {
		return editErr(internal.ErrCooldown)
	}
	if g.Owner.TrapCharges <= 0 || g.Owner.ActiveTraps() >= internal.MaxActiveTraps {
		return editErr(internal.ErrNoResource)
	}
	for _, t := range g.Owner.Traps {
		if !t.Consumed && t.Cell == *cell {
			return editErr(internal.ErrInvalidArg)
		}
	}
	if g.withinForbidden(*cell) {
		return editErr(internal.ErrForbiddenArea)
	}

	g.Owner.Traps = append(g.Owner.Traps, internal.Trap{Cell: *cell, PlacedAtTick: now})
	g.Owner.TrapCharges--
	armCooldown(g, now)
	return nil
}

// ApplyOwnerMark sets or clears a prediction mark. Marks are prep-only and
// do not consume the edit cooldown.
func ApplyOwnerMark(g *GameState, pc *PhaseClock, cell internal.Cell, active bool, now int64) error {
	if g == nil || pc.Paused || pc.Phase != internal.PhasePrep {
		return editErr(internal.ErrInvalidPhase)
	}

	if !active {
		for i, m := range g.Owner.PredictionMarks {
			if m.Cell == cell {
				g.Owner.PredictionMarks = append(
					g.Owner.PredictionMarks[:i], g.Owner.PredictionMarks[i+1:]...)
				return nil
			}
		}
		return editErr(internal.ErrInvalidArg)
	}

	if !g.Maze.InBounds(cell) {
		return editErr(internal.ErrOutOfBounds)
	}
	for _, m := range g.Owner.PredictionMarks {
		if m.Cell == cell {
			return editErr(internal.ErrInvalidArg)
		}
	}
	if g.Owner.ActivePredictions() >= g.Owner.PredictionLimit {
		return editErr(internal.ErrNoResource)
	}
	if g.withinForbidden(cell) {
		return editErr(internal.ErrForbiddenArea)
	}

	g.Owner.PredictionMarks = append(g.Owner.PredictionMarks,
		internal.PredictionMark{Cell: cell, Active: true})
	return nil
}

// ValidatePlayerInput checks the numeric range of a movement intent.
func ValidatePlayerInput(msg internal.PlayerInputMsg, phase internal.GamePhase) error {
	if phase != internal.PhaseExplore {
		return editErr(internal.ErrInvalidPhase)
	}
	if !finiteIn(msg.Forward, -1, 1) || !finiteIn(msg.Turn, -1, 1) {
		return editErr(internal.ErrInvalidArg)
	}
	return nil
}

func finiteIn(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}

func armCooldown(g *GameState, now int64) {
	g.Owner.EditCooldownUntil = now + internal.DurationTicks(internal.OwnerEditCooldown)
}
