package game

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/farlane23/mazeduel-backend/internal"
	"github.com/farlane23/mazeduel-backend/internal/utils"
)

// =============================================================================
// ROOM DIRECTORY
// =============================================================================

// ErrCodesExhausted means allocation could not find a free code; the HTTP
// layer maps it to 503.
var ErrCodesExhausted = errors.New("room code space exhausted")

const allocAttempts = 64

const janitorInterval = 30 * time.Second

// Directory is the process-wide code -> room map. The mutex guards only the
// map itself; rooms serialise their own state.
type Directory struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	rng     *rand.Rand
	factory MazeFactory

	janitorStop chan struct{}
	janitorOnce sync.Once
}

func NewDirectory(factory MazeFactory) *Directory {
	return &Directory{
		rooms:       make(map[string]*Room),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		factory:     factory,
		janitorStop: make(chan struct{}),
	}
}

// CreateRoom allocates a fresh code, registers the room and starts its loop.
func (d *Directory) CreateRoom() (*Room, error) {
	d.mu.Lock()
	var code string
	for i := 0; i < allocAttempts; i++ {
		candidate := utils.GenerateRoomCode(d.rng)
		if _, taken := d.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		d.mu.Unlock()
		return nil, ErrCodesExhausted
	}
	room := NewRoom(code, d, d.factory)
	d.rooms[code] = room
	d.mu.Unlock()

	room.Start()
	log.Printf("[Directory.CreateRoom] created room %s", code)
	return room, nil
}

// Lookup finds a room by case-normalised code.
func (d *Directory) Lookup(code string) (*Room, bool) {
	norm := utils.NormalizeRoomCode(code)
	if !utils.ValidRoomCode(norm) {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[norm]
	return room, ok
}

// Evict removes and disposes the room. Idempotent.
func (d *Directory) Evict(room *Room) {
	d.mu.Lock()
	if existing, ok := d.rooms[room.Code]; ok && existing == room {
		delete(d.rooms, room.Code)
	}
	d.mu.Unlock()
	room.Dispose()
	log.Printf("[Directory.Evict] evicted room %s", room.Code)
}

// Count returns the number of live rooms.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// StartJanitor begins the idle-room sweep: rooms with no sessions for longer
// than RoomIdleEviction are evicted.
func (d *Directory) StartJanitor() {
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-d.janitorStop:
				return
			case <-ticker.C:
				d.sweepIdle(time.Now().Add(-internal.RoomIdleEviction))
			}
		}
	}()
}

// Shutdown stops the janitor and disposes every room.
func (d *Directory) Shutdown() {
	d.janitorOnce.Do(func() { close(d.janitorStop) })
	d.mu.Lock()
	rooms := make([]*Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		rooms = append(rooms, room)
	}
	d.rooms = make(map[string]*Room)
	d.mu.Unlock()
	for _, room := range rooms {
		room.Dispose()
	}
}

// sweepIdle evicts rooms that had no session since before cutoff. The
// cutoff is an argument so tests can sweep without waiting out the eviction
// window.
func (d *Directory) sweepIdle(cutoff time.Time) {
	d.mu.RLock()
	var idle []*Room
	for _, room := range d.rooms {
		if !room.HasSessions() && room.IdleSince().Before(cutoff) {
			idle = append(idle, room)
		}
	}
	d.mu.RUnlock()

	for _, room := range idle {
		log.Printf("[Directory.sweepIdle] room %s idle since %s, evicting",
			room.Code, room.IdleSince().Format(time.RFC3339))
		d.Evict(room)
	}
}
