package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farlane23/mazeduel-backend/internal"
)

func snapshotFixture(t *testing.T) (*GameState, *PhaseClock, *internal.Snapshot) {
	t.Helper()
	g, pc := prepState(10)
	snap := BuildSnapshot("ROOM01", g, pc, []internal.SessionInfo{
		{ID: "a", Role: internal.RoleOwner, Nick: "OWNER"},
		{ID: "b", Role: internal.RolePlayer, Nick: "PLAYER"},
	}, 0, time.UnixMilli(1_000_000))
	return g, pc, snap
}

func TestBuildSnapshotShape(t *testing.T) {
	g, _, snap := snapshotFixture(t)

	assert.Equal(t, "ROOM01", snap.RoomID)
	assert.Equal(t, internal.PhasePrep, snap.Phase)
	assert.Equal(t, 10, snap.MazeSize)
	assert.Equal(t, g.TargetScore, snap.TargetScore)
	assert.Equal(t, g.CompensationAward(), snap.PointCompensation)
	assert.False(t, snap.Paused)
	assert.Len(t, snap.Sessions, 2)
	require.NotNil(t, snap.Player)
	require.NotNil(t, snap.Owner)
	require.NotNil(t, snap.Maze)
	assert.Len(t, snap.Maze.Cells, 100)
	assert.Len(t, snap.Owner.Points, 98) // all cells minus start and goal
	assert.Equal(t, internal.OwnerEditCooldown.Milliseconds(), snap.Owner.EditCooldownDuration)
	// prep runs 1200 ticks from tick 0; ends 60 s after wallNow.
	assert.Equal(t, int64(1_000_000+60_000), snap.PhaseEndsAt)
}

func TestBuildSnapshotLobbyHasNoGame(t *testing.T) {
	snap := BuildSnapshot("ROOM01", nil, NewPhaseClock(), nil, 0, time.Now())
	assert.Equal(t, internal.PhaseLobby, snap.Phase)
	assert.Nil(t, snap.Player)
	assert.Nil(t, snap.Owner)
	assert.Nil(t, snap.Maze)
	assert.Zero(t, snap.PhaseEndsAt)
}

func TestBuildSnapshotPauseFields(t *testing.T) {
	g, pc := prepState(10)
	pc.Pause(PauseDisconnect, internal.RolePlayer, 1200, 100)

	snap := BuildSnapshot("ROOM01", g, pc, nil, 200, time.UnixMilli(5_000_000))
	assert.True(t, snap.Paused)
	assert.Equal(t, string(PauseDisconnect), snap.PauseReason)
	assert.Equal(t, internal.PhasePrep, snap.PausePhase)
	// 1100 ticks of grace left at tick 200.
	assert.Equal(t, int64(55_000), snap.PauseRemainingMs)
	assert.Equal(t, int64(5_000_000+55_000), snap.PauseExpiresAt)
	assert.Zero(t, snap.PhaseEndsAt, "phase deadline is hidden while paused")
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	_, _, snap := snapshotFixture(t)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var back internal.Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *snap, back)
}

func TestDiffNilWhenUnchanged(t *testing.T) {
	g, pc, snap := snapshotFixture(t)
	again := BuildSnapshot("ROOM01", g, pc, snap.Sessions, 0, time.UnixMilli(1_000_000))
	assert.Nil(t, DiffSnapshot(snap, again))
}

func TestDiffDetectsPlayerAndPhase(t *testing.T) {
	g, pc, snap := snapshotFixture(t)

	g.Player.Position.X += 0.1
	pc.Enter(internal.PhaseExplore, 6000, 0)
	cur := BuildSnapshot("ROOM01", g, pc, snap.Sessions, 0, time.UnixMilli(1_000_050))

	d := DiffSnapshot(snap, cur)
	require.NotNil(t, d)
	require.NotNil(t, d.Phase)
	assert.Equal(t, internal.PhaseExplore, *d.Phase)
	require.NotNil(t, d.Player)
	assert.InDelta(t, 0.6, d.Player.Position.X, 1e-9)
	assert.Nil(t, d.Maze)
	assert.Empty(t, d.CellsChanged)
}

func TestDiffCellsChanged(t *testing.T) {
	g, pc, snap := snapshotFixture(t)

	require.NoError(t, ApplyOwnerEdit(g, pc,
		placeWall(internal.Edge{X: 6, Y: 6, Side: internal.SideRight}), 0))
	cur := BuildSnapshot("ROOM01", g, pc, snap.Sessions, 0, time.UnixMilli(1_000_050))

	d := DiffSnapshot(snap, cur)
	require.NotNil(t, d)
	// Both incident cells change.
	assert.Len(t, d.CellsChanged, 2)
	require.NotNil(t, d.Owner)
	assert.Equal(t, snap.Owner.WallStock-1, d.Owner.WallStock)
}

func TestDiffTombstones(t *testing.T) {
	g, pc := prepState(10)
	g.Owner.Traps = []internal.Trap{{Cell: internal.Cell{X: 3, Y: 3}}}
	g.Owner.PredictionMarks = []internal.PredictionMark{
		{Cell: internal.Cell{X: 4, Y: 4}, Active: true},
	}
	prev := BuildSnapshot("R", g, pc, nil, 0, time.UnixMilli(1))

	g.Owner.Traps[0].Consumed = true
	g.Owner.PredictionMarks[0].Active = false
	delete(g.Points, internal.Cell{X: 5, Y: 5})
	cur := BuildSnapshot("R", g, pc, nil, 1, time.UnixMilli(2))

	d := DiffSnapshot(prev, cur)
	require.NotNil(t, d)
	assert.Equal(t, []internal.Cell{{X: 3, Y: 3}}, d.TrapsRemoved)
	assert.Equal(t, []internal.Cell{{X: 4, Y: 4}}, d.MarksRemoved)
	assert.Equal(t, []internal.Cell{{X: 5, Y: 5}}, d.PointsRemoved)
}

func TestDeltaTooLarge(t *testing.T) {
	d := &internal.Delta{}
	assert.False(t, deltaTooLarge(d, 10))
	d.CellsChanged = make([]internal.MazeCell, 51)
	assert.True(t, deltaTooLarge(d, 10))
	assert.False(t, deltaTooLarge(nil, 10))
}

func TestDiffMazeAppears(t *testing.T) {
	pc := NewPhaseClock()
	prev := BuildSnapshot("R", nil, pc, nil, 0, time.UnixMilli(1))

	g := NewGameState(newOpenMaze(10))
	pc.Enter(internal.PhaseCountdown, 60, 0)
	cur := BuildSnapshot("R", g, pc, nil, 0, time.UnixMilli(2))

	d := DiffSnapshot(prev, cur)
	require.NotNil(t, d)
	require.NotNil(t, d.Maze)
	assert.Len(t, d.Maze.Cells, 100)
	require.NotNil(t, d.MazeSize)
	assert.Equal(t, 10, *d.MazeSize)
}
