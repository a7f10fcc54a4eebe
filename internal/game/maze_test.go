package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farlane23/mazeduel-backend/internal"
)

func TestGenerateConnected(t *testing.T) {
	for _, size := range []int{20, 40} {
		m, err := SpanningTreeFactory{}.Generate(size, "test")
		require.NoError(t, err)
		assert.Equal(t, size, m.Size)
		assert.Len(t, m.Cells, size*size)
		assert.True(t, m.Connected(), "every cell must be reachable from start")
		assert.NotEqual(t, m.Start, m.Goal)
		assert.True(t, m.InBounds(m.Goal))
	}
}

func TestGenerateDeterministicPerSeed(t *testing.T) {
	a, err := SpanningTreeFactory{}.Generate(20, "alpha")
	require.NoError(t, err)
	b, err := SpanningTreeFactory{}.Generate(20, "alpha")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := SpanningTreeFactory{}.Generate(20, "beta")
	require.NoError(t, err)
	assert.NotEqual(t, a.Cells, c.Cells)
}

func TestGenerateRejectsBadSize(t *testing.T) {
	_, err := SpanningTreeFactory{}.Generate(17, "x")
	assert.Error(t, err)
}

func TestWallSymmetry(t *testing.T) {
	m, err := SpanningTreeFactory{}.Generate(20, "sym")
	require.NoError(t, err)

	// Both cells incident to an interior edge must agree on it.
	for y := 0; y < m.Size; y++ {
		for x := 0; x < m.Size; x++ {
			cell := m.CellAt(internal.Cell{X: x, Y: y})
			if x < m.Size-1 {
				right := m.CellAt(internal.Cell{X: x + 1, Y: y})
				assert.Equal(t, cell.Walls.Right, right.Walls.Left, "cell (%d,%d) right edge", x, y)
			}
			if y < m.Size-1 {
				below := m.CellAt(internal.Cell{X: x, Y: y + 1})
				assert.Equal(t, cell.Walls.Bottom, below.Walls.Top, "cell (%d,%d) bottom edge", x, y)
			}
		}
	}
}

func TestGenerateBorderSolid(t *testing.T) {
	m, err := SpanningTreeFactory{}.Generate(20, "border")
	require.NoError(t, err)
	for i := 0; i < m.Size; i++ {
		assert.True(t, m.CellAt(internal.Cell{X: i, Y: 0}).Walls.Top)
		assert.True(t, m.CellAt(internal.Cell{X: i, Y: m.Size - 1}).Walls.Bottom)
		assert.True(t, m.CellAt(internal.Cell{X: 0, Y: i}).Walls.Left)
		assert.True(t, m.CellAt(internal.Cell{X: m.Size - 1, Y: i}).Walls.Right)
	}
}

func TestSetWallKeepsBothSidesInSync(t *testing.T) {
	m := newOpenMaze(4)
	e := internal.Edge{X: 1, Y: 1, Side: internal.SideRight}

	m.SetWall(e, true)
	assert.True(t, m.HasWall(e))
	assert.True(t, m.HasWall(internal.Edge{X: 2, Y: 1, Side: internal.SideLeft}))

	m.SetWall(internal.Edge{X: 2, Y: 1, Side: internal.SideLeft}, false)
	assert.False(t, m.HasWall(e))
}

func TestPathExists(t *testing.T) {
	m := corridorMaze(5)
	assert.True(t, m.PathExists(m.Start, m.Goal))
	assert.False(t, m.PathExists(m.Start, internal.Cell{X: 0, Y: 1}))
	assert.False(t, m.Connected())
}
