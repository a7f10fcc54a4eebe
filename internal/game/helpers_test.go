package game

import (
	"encoding/json"
	"testing"

	"github.com/farlane23/mazeduel-backend/internal"
)

// newOpenMaze builds a maze with border walls only: every interior edge is
// open. Start top-left, goal bottom-right.
func newOpenMaze(n int) *internal.MazeState {
	m := &internal.MazeState{
		Size:  n,
		Seed:  "open",
		Cells: make([]internal.MazeCell, n*n),
		Start: internal.Cell{X: 0, Y: 0},
		Goal:  internal.Cell{X: n - 1, Y: n - 1},
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Cells[y*n+x] = internal.MazeCell{
				X: x,
				Y: y,
				Walls: internal.Walls{
					Top:    y == 0,
					Bottom: y == n-1,
					Left:   x == 0,
					Right:  x == n-1,
				},
			}
		}
	}
	return m
}

// corridorMaze builds a single open corridor along row 0; everything else is
// fully walled. Start (0,0), goal (n-1,0).
func corridorMaze(n int) *internal.MazeState {
	m := &internal.MazeState{
		Size:  n,
		Seed:  "corridor",
		Cells: make([]internal.MazeCell, n*n),
		Start: internal.Cell{X: 0, Y: 0},
		Goal:  internal.Cell{X: n - 1, Y: 0},
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			walls := internal.Walls{Top: true, Bottom: true, Left: true, Right: true}
			if y == 0 {
				walls.Left = x == 0
				walls.Right = x == n-1
			}
			m.Cells[y*n+x] = internal.MazeCell{X: x, Y: y, Walls: walls}
		}
	}
	return m
}

// prepState returns a fresh game on an open maze with the clock in prep.
func prepState(n int) (*GameState, *PhaseClock) {
	g := NewGameState(newOpenMaze(n))
	pc := NewPhaseClock()
	pc.Enter(internal.PhasePrep, internal.DurationTicks(internal.PrepPhaseDuration), 0)
	return g, pc
}

// drainOutbox empties a session outbox into a slice.
func drainOutbox(s *Session) []any {
	var out []any
	for {
		select {
		case msg := <-s.outbox:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// stateMessages filters STATE payloads out of drained outbox messages.
func stateMessages(msgs []any) []internal.StatePayload {
	var out []internal.StatePayload
	for _, m := range msgs {
		if sm, ok := m.(internal.StateMsg); ok {
			out = append(out, sm.Payload)
		}
	}
	return out
}

// errCodes filters ERR codes out of drained outbox messages.
func errCodes(msgs []any) []internal.ErrCode {
	var out []internal.ErrCode
	for _, m := range msgs {
		if em, ok := m.(internal.ErrMsg); ok {
			out = append(out, em.Code)
		}
	}
	return out
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
