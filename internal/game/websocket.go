package game

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/farlane23/mazeduel-backend/internal"
	"github.com/farlane23/mazeduel-backend/internal/utils"
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func closeHandshake(conn *websocket.Conn, code internal.ErrCode) {
	_ = conn.WriteJSON(internal.ErrMsg{Type: internal.MsgErr, Code: code})
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, internal.CloseInvalidHandshake)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

// ServeWS upgrades the connection and attaches the session described by the
// query string: /ws?room=<code>&role=owner|player&nick=<name>.
func ServeWS(dir *Directory, w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ServeWS] upgrade failed: %v", err)
		return
	}

	q := r.URL.Query()
	roomCode := q.Get("room")
	role := internal.Role(q.Get("role"))
	nick := q.Get("nick")

	if role != internal.RoleOwner && role != internal.RolePlayer {
		log.Printf("[ServeWS] bad role %q", role)
		closeHandshake(conn, internal.ErrInvalidArg)
		return
	}
	if !utils.ValidNick(nick) {
		log.Printf("[ServeWS] bad nick %q", nick)
		closeHandshake(conn, internal.ErrInvalidName)
		return
	}
	room, ok := dir.Lookup(roomCode)
	if !ok {
		log.Printf("[ServeWS] unknown room %q", roomCode)
		closeHandshake(conn, internal.ErrInvalidRoom)
		return
	}

	session := NewSession(role, nick, conn)
	if err := room.Attach(session); err != nil {
		log.Printf("[ServeWS] attach to room %s rejected: %v", room.Code, err)
		closeHandshake(conn, ErrCodeOf(err))
		return
	}

	log.Printf("[ServeWS] session %s (%s %q) joined room %s", session.ID, role, nick, room.Code)
	go session.WriteLoop()
	go session.ReadLoop()
}
