package internal

// Methods (MazeState struct)

func (m *MazeState) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < m.Size && c.Y >= 0 && c.Y < m.Size
}

func (m *MazeState) CellAt(c Cell) *MazeCell {
	if !m.InBounds(c) {
		return nil
	}
	return &m.Cells[c.Y*m.Size+c.X]
}

// neighbor returns the cell on the far side of the edge and the side name
// from that cell's point of view.
func neighbor(e Edge) (Cell, WallSide) {
	switch e.Side {
	case SideTop:
		return Cell{X: e.X, Y: e.Y - 1}, SideBottom
	case SideBottom:
		return Cell{X: e.X, Y: e.Y + 1}, SideTop
	case SideLeft:
		return Cell{X: e.X - 1, Y: e.Y}, SideRight
	default:
		return Cell{X: e.X + 1, Y: e.Y}, SideLeft
	}
}

func (w *Walls) get(side WallSide) bool {
	switch side {
	case SideTop:
		return w.Top
	case SideRight:
		return w.Right
	case SideBottom:
		return w.Bottom
	default:
		return w.Left
	}
}

func (w *Walls) set(side WallSide, solid bool) {
	switch side {
	case SideTop:
		w.Top = solid
	case SideRight:
		w.Right = solid
	case SideBottom:
		w.Bottom = solid
	case SideLeft:
		w.Left = solid
	}
}

// ValidEdge reports whether the edge names a wall slot inside the maze.
func (m *MazeState) ValidEdge(e Edge) bool {
	if !m.InBounds(Cell{X: e.X, Y: e.Y}) {
		return false
	}
	switch e.Side {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// BorderEdge reports whether the edge lies on the outer boundary.
func (m *MazeState) BorderEdge(e Edge) bool {
	n, _ := neighbor(e)
	return !m.InBounds(n)
}

// HasWall reports whether the edge is currently solid.
func (m *MazeState) HasWall(e Edge) bool {
	c := m.CellAt(Cell{X: e.X, Y: e.Y})
	if c == nil {
		return true
	}
	return c.Walls.get(e.Side)
}

// SetWall sets the edge on both incident cells, preserving the shared-edge
// invariant.
func (m *MazeState) SetWall(e Edge, solid bool) {
	if c := m.CellAt(Cell{X: e.X, Y: e.Y}); c != nil {
		c.Walls.set(e.Side, solid)
	}
	nc, nside := neighbor(e)
	if c := m.CellAt(nc); c != nil {
		c.Walls.set(nside, solid)
	}
}

// EdgeCells returns both cells incident to the edge; the second is absent
// for border edges.
func (m *MazeState) EdgeCells(e Edge) (Cell, *Cell) {
	own := Cell{X: e.X, Y: e.Y}
	n, _ := neighbor(e)
	if !m.InBounds(n) {
		return own, nil
	}
	return own, &n
}

// OpenNeighbors returns cells reachable from c through open edges.
func (m *MazeState) OpenNeighbors(c Cell) []Cell {
	cell := m.CellAt(c)
	if cell == nil {
		return nil
	}
	var out []Cell
	if !cell.Walls.Top && c.Y > 0 {
		out = append(out, Cell{X: c.X, Y: c.Y - 1})
	}
	if !cell.Walls.Right && c.X < m.Size-1 {
		out = append(out, Cell{X: c.X + 1, Y: c.Y})
	}
	if !cell.Walls.Bottom && c.Y < m.Size-1 {
		out = append(out, Cell{X: c.X, Y: c.Y + 1})
	}
	if !cell.Walls.Left && c.X > 0 {
		out = append(out, Cell{X: c.X - 1, Y: c.Y})
	}
	return out
}

// Reachable runs a BFS over open edges from the given cell and returns the
// visited set indexed row-major.
func (m *MazeState) Reachable(from Cell) []bool {
	seen := make([]bool, m.Size*m.Size)
	if !m.InBounds(from) {
		return seen
	}
	queue := []Cell{from}
	seen[from.Y*m.Size+from.X] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range m.OpenNeighbors(cur) {
			idx := n.Y*m.Size + n.X
			if !seen[idx] {
				seen[idx] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

// PathExists reports whether to is reachable from from over open edges.
func (m *MazeState) PathExists(from, to Cell) bool {
	if !m.InBounds(to) {
		return false
	}
	return m.Reachable(from)[to.Y*m.Size+to.X]
}

// Connected reports whether every cell is reachable from start.
func (m *MazeState) Connected() bool {
	seen := m.Reachable(m.Start)
	for _, ok := range seen {
		if !ok {
			return false
		}
	}
	return true
}

// WallCount counts solid interior edges once each (border excluded).
func (m *MazeState) WallCount() int {
	n := 0
	for y := 0; y < m.Size; y++ {
		for x := 0; x < m.Size; x++ {
			c := m.Cells[y*m.Size+x]
			if c.Walls.Right && x < m.Size-1 {
				n++
			}
			if c.Walls.Bottom && y < m.Size-1 {
				n++
			}
		}
	}
	return n
}
