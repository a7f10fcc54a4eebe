package game

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farlane23/mazeduel-backend/internal"
	"github.com/farlane23/mazeduel-backend/internal/utils"
)

func TestRoomCodeShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		code := utils.GenerateRoomCode(rng)
		assert.Len(t, code, utils.RoomCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(utils.RoomCodeAlphabet, r),
				"code %q uses letter outside alphabet", code)
		}
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "O")
		seen[code] = true
	}
	assert.Greater(t, len(seen), 990, "codes should be near-unique")
}

func TestDirectoryCreateAndLookup(t *testing.T) {
	d := NewDirectory(SpanningTreeFactory{})
	defer d.Shutdown()

	room, err := d.CreateRoom()
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, 1, d.Count())

	found, ok := d.Lookup(room.Code)
	require.True(t, ok)
	assert.Same(t, room, found)

	// Lookup is case-normalised.
	found, ok = d.Lookup(strings.ToLower(room.Code))
	require.True(t, ok)
	assert.Same(t, room, found)

	_, ok = d.Lookup("ZZZZZZ")
	assert.False(t, ok)
	_, ok = d.Lookup("not-a-code")
	assert.False(t, ok)
}

func TestDirectoryEvictIdempotent(t *testing.T) {
	d := NewDirectory(SpanningTreeFactory{})
	defer d.Shutdown()

	room, err := d.CreateRoom()
	require.NoError(t, err)

	d.Evict(room)
	assert.Equal(t, 0, d.Count())
	_, ok := d.Lookup(room.Code)
	assert.False(t, ok)

	d.Evict(room) // second evict is a no-op
	assert.Equal(t, 0, d.Count())
}

func TestDirectoryManyRooms(t *testing.T) {
	d := NewDirectory(SpanningTreeFactory{})
	defer d.Shutdown()

	codes := map[string]bool{}
	for i := 0; i < 50; i++ {
		room, err := d.CreateRoom()
		require.NoError(t, err)
		assert.False(t, codes[room.Code], "duplicate code %s", room.Code)
		codes[room.Code] = true
	}
	assert.Equal(t, 50, d.Count())
}

func TestSweepIdleEvictsSessionlessRooms(t *testing.T) {
	d := NewDirectory(SpanningTreeFactory{})
	defer d.Shutdown()

	idle, err := d.CreateRoom()
	require.NoError(t, err)
	busy, err := d.CreateRoom()
	require.NoError(t, err)
	require.NoError(t, busy.Attach(NewSession(internal.RoleOwner, "OWNER1", nil)))

	// A cutoff before every room's last activity evicts nothing.
	d.sweepIdle(time.Now().Add(-time.Hour))
	assert.Equal(t, 2, d.Count())

	// A cutoff after it evicts only the sessionless room.
	d.sweepIdle(time.Now().Add(time.Minute))
	assert.Equal(t, 1, d.Count())
	_, ok := d.Lookup(idle.Code)
	assert.False(t, ok)
	_, ok = d.Lookup(busy.Code)
	assert.True(t, ok)
}

func TestValidNick(t *testing.T) {
	assert.True(t, utils.ValidNick("AB"))
	assert.True(t, utils.ValidNick("player_1"))
	assert.True(t, utils.ValidNick("X-2345678Y"))
	assert.False(t, utils.ValidNick("A"))
	assert.False(t, utils.ValidNick("ABCDEFGHIJK"))
	assert.False(t, utils.ValidNick("bad nick"))
	assert.False(t, utils.ValidNick(""))
}
