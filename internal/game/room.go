package game

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/farlane23/mazeduel-backend/internal"
)

// =============================================================================
// ROOM
// =============================================================================

const (
	roomEventQueueSize = 256
	editLogSize        = 32
)

type roomEvent interface{}

type evAttach struct {
	s     *Session
	reply chan error
}

type evDetach struct{ s *Session }

type evMessage struct {
	s    *Session
	data []byte
}

// EditRecord is one accepted edit, kept in a small ring for post-mortem
// logging when a room dies on an invariant violation.
type EditRecord struct {
	Tick   int64
	Action internal.EditAction
	Detail string
}

// Room is the unit of concurrency isolation: one goroutine drains the events
// mailbox plus a 50 ms ticker, and it alone touches clock, game, sessions
// and seq. No locks guard room state.
type Room struct {
	Code      string
	CreatedAt time.Time

	// Seed overrides the generated maze seed when non-empty (tests).
	Seed string

	dir     *Directory
	factory MazeFactory

	events      chan roomEvent
	done        chan struct{}
	disposeOnce sync.Once

	// Loop-owned state.
	clock    *PhaseClock
	game     *GameState
	sessions map[internal.Role]*Session
	seq      int64
	tick     int64
	intent   PlayerIntent
	editLog  []EditRecord

	// Read by the directory janitor.
	sessionCount atomic.Int32
	lastActive   atomic.Int64 // unix seconds
}

func NewRoom(code string, dir *Directory, factory MazeFactory) *Room {
	r := &Room{
		Code:      code,
		CreatedAt: time.Now(),
		dir:       dir,
		factory:   factory,
		events:    make(chan roomEvent, roomEventQueueSize),
		done:      make(chan struct{}),
		clock:     NewPhaseClock(),
		sessions:  make(map[internal.Role]*Session),
	}
	r.touch()
	return r
}

// Start launches the room goroutine.
func (r *Room) Start() {
	go r.loop()
}

// Dispose signals the loop to shut down; the loop closes all sessions with
// the room-closed reason on its way out. Idempotent.
func (r *Room) Dispose() {
	r.disposeOnce.Do(func() {
		close(r.done)
	})
}

// HasSessions reports whether any client is attached (janitor use).
func (r *Room) HasSessions() bool {
	return r.sessionCount.Load() > 0
}

// IdleSince returns the last attach/detach/message wall time (janitor use).
func (r *Room) IdleSince() time.Time {
	return time.Unix(r.lastActive.Load(), 0)
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().Unix())
}

// Attach seats the session in the room, waiting at most AttachTimeout for
// the room goroutine to admit it.
func (r *Room) Attach(s *Session) error {
	s.room = r
	reply := make(chan error, 1)
	timer := time.NewTimer(internal.AttachTimeout)
	defer timer.Stop()

	select {
	case r.events <- evAttach{s: s, reply: reply}:
	case <-r.done:
		return editErr(internal.ErrInvalidRoom)
	case <-timer.C:
		return editErr(internal.ErrNetworkError)
	}

	select {
	case err := <-reply:
		return err
	case <-r.done:
		return editErr(internal.ErrInvalidRoom)
	case <-timer.C:
		return editErr(internal.ErrNetworkError)
	}
}

// Detach removes the session; safe to call from any goroutine, repeatedly.
func (r *Room) Detach(s *Session) {
	select {
	case r.events <- evDetach{s: s}:
	case <-r.done:
	}
}

// PostMessage forwards one raw inbound frame to the room mailbox.
func (r *Room) PostMessage(s *Session, data []byte) {
	select {
	case r.events <- evMessage{s: s, data: data}:
	case <-r.done:
	}
}

// =============================================================================
// EVENT LOOP
// =============================================================================

func (r *Room) loop() {
	ticker := time.NewTicker(internal.TickInterval)
	defer ticker.Stop()

	log.Printf("[Room.loop] room=%s started", r.Code)
	for {
		select {
		case <-r.done:
			r.finalize()
			return
		case ev := <-r.events:
			r.handleEvent(ev)
		case <-ticker.C:
			started := time.Now()
			r.onTick()
			if d := time.Since(started); d > internal.TickInterval {
				log.Printf("[Room.loop] room=%s tick overrun: took %v", r.Code, d)
			}
		}
	}
}

// finalize closes every session with room-closed and answers any queued
// attach with an error.
func (r *Room) finalize() {
	for _, s := range r.sessions {
		s.Close(websocket.CloseNormalClosure, internal.CloseRoomClosed)
	}
	r.sessions = map[internal.Role]*Session{}
	r.sessionCount.Store(0)
	for {
		select {
		case ev := <-r.events:
			if at, ok := ev.(evAttach); ok {
				at.reply <- editErr(internal.ErrInvalidRoom)
			}
		default:
			log.Printf("[Room.finalize] room=%s closed", r.Code)
			return
		}
	}
}

func (r *Room) handleEvent(ev roomEvent) {
	switch e := ev.(type) {
	case evAttach:
		e.reply <- r.handleAttach(e.s)
	case evDetach:
		r.handleDetach(e.s)
	case evMessage:
		r.handleMessage(e.s, e.data)
	}
}

func (r *Room) handleAttach(s *Session) error {
	if old := r.sessions[s.Role]; old != nil {
		// Second attach for an occupied role displaces the first.
		log.Printf("[Room.handleAttach] room=%s role=%s taken over (old=%s new=%s)",
			r.Code, s.Role, old.Nick, s.Nick)
		old.Close(websocket.CloseNormalClosure, internal.CloseTakeover)
		r.sessionCount.Add(-1)
	}
	r.sessions[s.Role] = s
	r.sessionCount.Add(1)
	s.attachedAt = r.tick
	s.needsFull = true
	r.touch()

	if r.clock.Paused && r.clock.AbsentRole == s.Role {
		r.clock.Resume(r.tick)
		log.Printf("[Room.handleAttach] room=%s role=%s returned, game resumed in phase %s",
			r.Code, s.Role, r.clock.Phase)
	}

	log.Printf("[Room.handleAttach] room=%s attached session=%s role=%s nick=%s",
		r.Code, s.ID, s.Role, s.Nick)
	r.seq++
	r.broadcast()
	return nil
}

func (r *Room) handleDetach(s *Session) {
	if r.sessions[s.Role] != s {
		return // already displaced by takeover
	}
	delete(r.sessions, s.Role)
	r.sessionCount.Add(-1)
	r.touch()
	log.Printf("[Room.handleDetach] room=%s detached session=%s role=%s", r.Code, s.ID, s.Role)

	switch r.clock.Phase {
	case internal.PhaseCountdown, internal.PhasePrep, internal.PhaseExplore:
		if !r.clock.Paused {
			r.clock.Pause(PauseDisconnect, s.Role,
				internal.DurationTicks(internal.DisconnectGrace), r.tick)
			log.Printf("[Room.handleDetach] room=%s paused, waiting %s for %s",
				r.Code, internal.DisconnectGrace, s.Role)
		}
	}
	r.seq++
	r.broadcast()
}

// =============================================================================
// COMMAND HANDLING
// =============================================================================

func (r *Room) handleMessage(s *Session, data []byte) {
	r.touch()

	var env internal.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("[Room.handleMessage] room=%s unparseable frame from %s: %v", r.Code, s.ID, err)
		s.Close(websocket.ClosePolicyViolation, internal.CloseInvalidHandshake)
		r.handleDetach(s)
		return
	}

	switch env.Type {
	case internal.MsgPing:
		var msg internal.PingMsg
		if json.Unmarshal(data, &msg) == nil {
			s.Enqueue(internal.PongMsg{Type: internal.MsgPong, Ts: msg.Ts})
		}
	case internal.MsgPlayerInput:
		r.handlePlayerInput(s, data)
	case internal.MsgOwnerStart:
		r.handleOwnerStart(s, data)
	case internal.MsgOwnerEdit:
		r.handleOwnerEdit(s, data)
	case internal.MsgOwnerMark:
		r.handleOwnerMark(s, data)
	default:
		s.Enqueue(internal.ErrMsg{Type: internal.MsgErr, Code: internal.ErrInvalidArg})
	}
}

func (r *Room) rejectEdit(s *Session, err error) {
	s.Enqueue(internal.ErrMsg{Type: internal.MsgErr, Code: ErrCodeOf(err)})
}

func (r *Room) handlePlayerInput(s *Session, data []byte) {
	var msg internal.PlayerInputMsg
	if err := json.Unmarshal(data, &msg); err != nil || s.Role != internal.RolePlayer {
		r.rejectEdit(s, editErr(internal.ErrInvalidArg))
		return
	}
	if err := ValidatePlayerInput(msg, r.clock.Phase); err != nil {
		r.rejectEdit(s, err)
		return
	}
	if msg.Seq <= s.lastInputSeq {
		return // replayed input is a no-op
	}
	s.lastInputSeq = msg.Seq
	r.intent = PlayerIntent{
		Forward:    msg.Forward,
		Turn:       msg.Turn,
		Seq:        msg.Seq,
		ReceivedAt: r.tick,
	}
}

func (r *Room) handleOwnerStart(s *Session, data []byte) {
	var msg internal.OwnerStartMsg
	if err := json.Unmarshal(data, &msg); err != nil || s.Role != internal.RoleOwner {
		r.rejectEdit(s, editErr(internal.ErrInvalidArg))
		return
	}
	if r.clock.Phase != internal.PhaseLobby {
		r.rejectEdit(s, editErr(internal.ErrInvalidPhase))
		return
	}
	if r.sessions[internal.RoleOwner] == nil || r.sessions[internal.RolePlayer] == nil {
		r.rejectEdit(s, editErr(internal.ErrInvalidPhase))
		return
	}
	if msg.MazeSize != 20 && msg.MazeSize != 40 {
		r.rejectEdit(s, editErr(internal.ErrInvalidArg))
		return
	}

	seed := r.Seed
	if seed == "" {
		seed = fmt.Sprintf("%s-%d", r.Code, time.Now().UnixNano())
	}
	maze, err := r.factory.Generate(msg.MazeSize, seed)
	if err != nil {
		log.Printf("[Room.handleOwnerStart] room=%s maze generation failed: %v", r.Code, err)
		r.rejectEdit(s, editErr(internal.ErrInvalidArg))
		return
	}

	r.game = NewGameState(maze)
	r.intent = PlayerIntent{}
	r.clock.Enter(internal.PhaseCountdown,
		internal.DurationTicks(internal.CountdownPhaseDuration), r.tick)
	log.Printf("[Room.handleOwnerStart] room=%s started, size=%d seed=%q target=%d",
		r.Code, msg.MazeSize, seed, r.game.TargetScore)
	r.seq++
	r.broadcast()
}

func (r *Room) handleOwnerEdit(s *Session, data []byte) {
	var msg internal.OwnerEditMsg
	if err := json.Unmarshal(data, &msg); err != nil || s.Role != internal.RoleOwner {
		r.rejectEdit(s, editErr(internal.ErrInvalidArg))
		return
	}
	if r.game == nil {
		r.rejectEdit(s, editErr(internal.ErrInvalidPhase))
		return
	}
	if err := ApplyOwnerEdit(r.game, r.clock, msg.Edit, r.tick); err != nil {
		r.rejectEdit(s, err)
		return
	}
	r.recordEdit(EditRecord{
		Tick:   r.tick,
		Action: msg.Edit.Action,
		Detail: editDetail(msg.Edit),
	})
	r.seq++
	r.broadcast()
}

func (r *Room) handleOwnerMark(s *Session, data []byte) {
	var msg internal.OwnerMarkMsg
	if err := json.Unmarshal(data, &msg); err != nil || s.Role != internal.RoleOwner {
		r.rejectEdit(s, editErr(internal.ErrInvalidArg))
		return
	}
	if r.game == nil {
		r.rejectEdit(s, editErr(internal.ErrInvalidPhase))
		return
	}
	if err := ApplyOwnerMark(r.game, r.clock, msg.Cell, msg.Active, r.tick); err != nil {
		r.rejectEdit(s, err)
		return
	}
	r.seq++
	r.broadcast()
}

func editDetail(e internal.OwnerEdit) string {
	if e.Edge != nil {
		return fmt.Sprintf("edge=(%d,%d,%s)", e.Edge.X, e.Edge.Y, e.Edge.Side)
	}
	if e.Cell != nil {
		return fmt.Sprintf("cell=(%d,%d)", e.Cell.X, e.Cell.Y)
	}
	return ""
}

func (r *Room) recordEdit(rec EditRecord) {
	r.editLog = append(r.editLog, rec)
	if len(r.editLog) > editLogSize {
		r.editLog = r.editLog[len(r.editLog)-editLogSize:]
	}
}

// =============================================================================
// TICK
// =============================================================================

func (r *Room) onTick() {
	r.tick++

	switch r.clock.Tick(r.tick) {
	case EventPauseTimeout:
		r.finishByAbandon()
		return
	case EventPhaseExpired:
		r.advancePhase()
	}

	if r.clock.Paused {
		// Keep clients counting down: one STATE per second while paused.
		if r.tick%internal.TicksPerSecond == 0 {
			r.seq++
			r.broadcast()
		}
		return
	}

	switch r.clock.Phase {
	case internal.PhaseExplore:
		res := r.game.Step(r.intent, r.tick, r.clock.Remaining(r.tick))
		if Collides(r.game.Maze, r.game.Player.Position, internal.PlayerRadius) {
			r.fatal("player position intersects a wall")
			return
		}
		if res.GoalReached {
			log.Printf("[Room.onTick] room=%s goal reached, score=%d", r.Code, r.game.Player.Score)
			r.clock.Enter(internal.PhaseResult, 0, r.tick)
		}
		r.seq++
		r.broadcast()
	case internal.PhaseCountdown, internal.PhasePrep:
		// Scene renders but the player is frozen; broadcast keeps the phase
		// countdown smooth.
		r.seq++
		r.broadcast()
	}
}

func (r *Room) advancePhase() {
	switch r.clock.Phase {
	case internal.PhaseCountdown:
		r.clock.Enter(internal.PhasePrep,
			internal.DurationTicks(internal.PrepPhaseDuration), r.tick)
	case internal.PhasePrep:
		r.clock.Enter(internal.PhaseExplore,
			internal.DurationTicks(internal.ExplorePhaseDuration), r.tick)
		r.intent = PlayerIntent{}
	case internal.PhaseExplore:
		r.clock.Enter(internal.PhaseResult, 0, r.tick)
		log.Printf("[Room.advancePhase] room=%s explore timed out, score=%d",
			r.Code, r.game.Player.Score)
	}
	log.Printf("[Room.advancePhase] room=%s now in phase %s", r.Code, r.clock.Phase)
	r.seq++
	r.broadcast()
}

// finishByAbandon ends the game when the disconnect grace runs out: the
// absent side loses, and a player abandoned mid-explore is compensated.
func (r *Room) finishByAbandon() {
	absent := r.clock.AbsentRole
	if absent == internal.RoleOwner && r.clock.PausePhase == internal.PhaseExplore && r.game != nil {
		r.game.Player.Score += r.game.CompensationAward()
	}
	log.Printf("[Room.finishByAbandon] room=%s %s never returned, game over", r.Code, absent)
	r.clock.Enter(internal.PhaseResult, 0, r.tick)
	r.seq++
	r.broadcast()
}

// fatal handles a simulator invariant violation: log with the recent edit
// log, push everyone to result, and evict the room.
func (r *Room) fatal(msg string) {
	log.Printf("[Room.fatal] room=%s FATAL: %s (recent edits: %+v)", r.Code, msg, r.editLog)
	r.clock.Enter(internal.PhaseResult, 0, r.tick)
	r.seq++
	r.broadcast()
	if r.dir != nil {
		r.dir.Evict(r)
	} else {
		r.Dispose()
	}
}

// =============================================================================
// BROADCAST
// =============================================================================

func (r *Room) sessionInfos() []internal.SessionInfo {
	infos := make([]internal.SessionInfo, 0, len(r.sessions))
	for _, role := range []internal.Role{internal.RoleOwner, internal.RolePlayer} {
		if s := r.sessions[role]; s != nil {
			infos = append(infos, s.Info())
		}
	}
	return infos
}

// broadcast emits one STATE per session: a full snapshot for fresh or
// saturated sessions, a delta otherwise. Every accepted edit bumps seq and
// broadcasts immediately, so a session sees one message per authoritative
// change rather than one per tick.
func (r *Room) broadcast() {
	cur := BuildSnapshot(r.Code, r.game, r.clock, r.sessionInfos(), r.tick, time.Now())
	for _, s := range r.sessions {
		r.sendState(s, cur)
	}
}

func (r *Room) sendState(s *Session, cur *internal.Snapshot) {
	full := s.needsFull || s.lastSnapshot == nil
	var payload internal.StatePayload

	if !full {
		if r.seq <= s.lastSeq {
			return // seq must be strictly increasing per session
		}
		d := DiffSnapshot(s.lastSnapshot, cur)
		if d == nil {
			return
		}
		if deltaTooLarge(d, cur.MazeSize) {
			full = true
		} else {
			payload = internal.StatePayload{Seq: r.seq, Full: false, Changes: d}
		}
	}
	if full {
		payload = internal.StatePayload{Seq: r.seq, Full: true, Snapshot: cur}
	}

	msg := internal.StateMsg{Type: internal.MsgState, Payload: payload}
	if !s.Enqueue(msg) {
		// Outbox saturated: anything buffered is stale against a full
		// snapshot, so drop it all and send the snapshot instead.
		s.DrainOutbox()
		payload = internal.StatePayload{Seq: r.seq, Full: true, Snapshot: cur}
		s.Enqueue(internal.StateMsg{Type: internal.MsgState, Payload: payload})
	}
	s.lastSnapshot = cur
	s.lastSeq = r.seq
	s.needsFull = false
}
