package game

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/farlane23/mazeduel-backend/internal"
	"github.com/farlane23/mazeduel-backend/internal/utils"
)

// =============================================================================
// SESSION
// =============================================================================

const outboxSize = 64

const writeTimeout = 10 * time.Second

// Session is one connected client. The connection is drained by its own
// read/write goroutines; everything else (sequence cursor, snapshot baseline,
// liveness tick) is owned by the room goroutine.
type Session struct {
	ID   string
	Role internal.Role
	Nick string
	Conn *websocket.Conn // nil in tests

	room *Room

	outbox chan any
	done   chan struct{}

	closeOnce sync.Once

	// Room-goroutine state.
	lastSnapshot *internal.Snapshot
	lastSeq      int64
	lastInputSeq int64
	needsFull    bool
	attachedAt   int64 // tick

	// Write-loop state.
	pingSentAt time.Time
	lastRTT    time.Duration
}

func NewSession(role internal.Role, nick string, conn *websocket.Conn) *Session {
	return &Session{
		ID:        utils.GenerateID(),
		Role:      role,
		Nick:      nick,
		Conn:      conn,
		outbox:    make(chan any, outboxSize),
		done:      make(chan struct{}),
		needsFull: true,
	}
}

func (s *Session) Info() internal.SessionInfo {
	return internal.SessionInfo{ID: s.ID, Role: s.Role, Nick: s.Nick}
}

// Enqueue places an outbound message without blocking; false means the
// outbox is saturated and the caller must downgrade to a full snapshot.
func (s *Session) Enqueue(msg any) bool {
	select {
	case <-s.done:
		return true // sink writes after close
	default:
	}
	select {
	case s.outbox <- msg:
		return true
	default:
		return false
	}
}

// DrainOutbox discards buffered messages. Used right before queueing a full
// snapshot, which is self-sufficient.
func (s *Session) DrainOutbox() {
	for {
		select {
		case <-s.outbox:
		default:
			return
		}
	}
}

// Close sends a close frame with the given reason and tears the session
// down. Idempotent.
func (s *Session) Close(code int, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.Conn != nil {
			msg := websocket.FormatCloseMessage(code, reason)
			_ = s.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = s.Conn.Close()
		}
		log.Printf("[Session.Close] session=%s role=%s reason=%q", s.ID, s.Role, reason)
	})
}

// WriteLoop drains the outbox onto the socket and sends a control ping every
// PingInterval. Runs in its own goroutine per session.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(internal.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outbox:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.Conn.WriteJSON(msg); err != nil {
				log.Printf("[Session.WriteLoop] session=%s write failed: %v", s.ID, err)
				s.Close(websocket.CloseAbnormalClosure, "write failed")
				s.room.Detach(s)
				return
			}
		case <-ticker.C:
			s.pingSentAt = time.Now()
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				log.Printf("[Session.WriteLoop] session=%s ping failed: %v", s.ID, err)
				s.Close(websocket.CloseAbnormalClosure, "ping failed")
				s.room.Detach(s)
				return
			}
		}
	}
}

// ReadLoop reads frames and forwards them to the room mailbox. A quiet
// socket trips the read deadline after IdleTimeout, which surfaces here as a
// read error and detaches the session (the room then pauses the game).
func (s *Session) ReadLoop() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(internal.IdleTimeout))
	s.Conn.SetPongHandler(func(string) error {
		_ = s.Conn.SetReadDeadline(time.Now().Add(internal.IdleTimeout))
		if !s.pingSentAt.IsZero() {
			s.lastRTT = time.Since(s.pingSentAt)
			if s.lastRTT > 100*time.Millisecond {
				log.Printf("[Session.ReadLoop] session=%s high RTT %v", s.ID, s.lastRTT)
			}
		}
		return nil
	})

	for {
		_, data, err := s.Conn.ReadMessage()
		if err != nil {
			log.Printf("[Session.ReadLoop] session=%s role=%s read ended: %v", s.ID, s.Role, err)
			break
		}
		_ = s.Conn.SetReadDeadline(time.Now().Add(internal.IdleTimeout))
		s.room.PostMessage(s, data)
	}
	s.room.Detach(s)
}
