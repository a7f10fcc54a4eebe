package game

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/farlane23/mazeduel-backend/internal"
)

// =============================================================================
// MAZE GENERATION
// =============================================================================

// MazeFactory produces a fully-connected maze for a room. Output must be
// deterministic per (size, seed).
type MazeFactory interface {
	Generate(size int, seed string) (*internal.MazeState, error)
}

// SpanningTreeFactory is the default factory: a seeded recursive backtracker
// carving a spanning tree over the cell grid, then braiding a fraction of
// the remaining walls open. Without braiding every open edge would be a
// bridge and no wall placement could ever survive the connectivity check.
// Start is the top-left cell; goal is the BFS-farthest cell from start.
type SpanningTreeFactory struct{}

// braidRate is the fraction of leftover interior walls opened after carving.
const braidRate = 0.15

func seedToInt64(seed string) int64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}

func (SpanningTreeFactory) Generate(size int, seed string) (*internal.MazeState, error) {
	if size != 20 && size != 40 {
		return nil, fmt.Errorf("unsupported maze size %d", size)
	}

	m := &internal.MazeState{
		Size:  size,
		Seed:  seed,
		Cells: make([]internal.MazeCell, size*size),
		Start: internal.Cell{X: 0, Y: 0},
	}

	// Fully walled grid.
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			m.Cells[y*size+x] = internal.MazeCell{
				X:     x,
				Y:     y,
				Walls: internal.Walls{Top: true, Right: true, Bottom: true, Left: true},
			}
		}
	}

	rng := rand.New(rand.NewSource(seedToInt64(seed)))
	carveBacktracker(m, m.Start, rng)
	braid(m, rng)

	m.Goal = farthestCell(m, m.Start)
	if m.Goal == m.Start {
		return nil, fmt.Errorf("degenerate maze for seed %q", seed)
	}
	if !m.Connected() {
		return nil, fmt.Errorf("generator produced disconnected maze for seed %q", seed)
	}
	return m, nil
}

// carveBacktracker walks a randomized DFS, knocking down the wall between
// each visited cell and the unvisited neighbor it steps into.
func carveBacktracker(m *internal.MazeState, start internal.Cell, rng *rand.Rand) {
	visited := make([]bool, m.Size*m.Size)
	stack := []internal.Cell{start}
	visited[start.Y*m.Size+start.X] = true

	sides := []internal.WallSide{
		internal.SideTop, internal.SideRight, internal.SideBottom, internal.SideLeft,
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		// Collect unvisited neighbors.
		order := rng.Perm(len(sides))
		carved := false
		for _, i := range order {
			e := internal.Edge{X: cur.X, Y: cur.Y, Side: sides[i]}
			if m.BorderEdge(e) {
				continue
			}
			_, next := m.EdgeCells(e)
			if visited[next.Y*m.Size+next.X] {
				continue
			}
			m.SetWall(e, false)
			visited[next.Y*m.Size+next.X] = true
			stack = append(stack, *next)
			carved = true
			break
		}
		if !carved {
			stack = stack[:len(stack)-1]
		}
	}
}

// braid opens a deterministic fraction of the remaining interior walls,
// turning bridge-only corridors into loops.
func braid(m *internal.MazeState, rng *rand.Rand) {
	for y := 0; y < m.Size; y++ {
		for x := 0; x < m.Size; x++ {
			for _, side := range []internal.WallSide{internal.SideRight, internal.SideBottom} {
				e := internal.Edge{X: x, Y: y, Side: side}
				if m.BorderEdge(e) || !m.HasWall(e) {
					continue
				}
				if rng.Float64() < braidRate {
					m.SetWall(e, false)
				}
			}
		}
	}
}

// farthestCell returns the cell at maximum BFS depth from start.
func farthestCell(m *internal.MazeState, start internal.Cell) internal.Cell {
	dist := make([]int, m.Size*m.Size)
	for i := range dist {
		dist[i] = -1
	}
	dist[start.Y*m.Size+start.X] = 0
	queue := []internal.Cell{start}
	far := start
	farDist := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[cur.Y*m.Size+cur.X]
		if d > farDist {
			farDist = d
			far = cur
		}
		for _, n := range m.OpenNeighbors(cur) {
			idx := n.Y*m.Size + n.X
			if dist[idx] < 0 {
				dist[idx] = d + 1
				queue = append(queue, n)
			}
		}
	}
	return far
}
