package internal

// Wire message type tags. Every frame is a JSON object with a "type" field.
const (
	MsgPlayerInput = "P_INPUT"
	MsgOwnerStart  = "O_START"
	MsgOwnerEdit   = "O_EDIT"
	MsgOwnerMark   = "O_MRK"
	MsgPing        = "PING"
	MsgState       = "STATE"
	MsgPong        = "PONG"
	MsgErr         = "ERR"
)

// Envelope is the minimal decode used to route an inbound frame.
type Envelope struct {
	Type string `json:"type"`
}

type ErrCode string

const (
	ErrInvalidPhase     ErrCode = "INVALID_PHASE"
	ErrCooldown         ErrCode = "COOLDOWN"
	ErrNoResource       ErrCode = "NO_RESOURCE"
	ErrForbiddenArea    ErrCode = "FORBIDDEN_AREA"
	ErrDisconnectsMaze  ErrCode = "DISCONNECTS_MAZE"
	ErrOutOfBounds      ErrCode = "OUT_OF_BOUNDS"
	ErrInvalidArg       ErrCode = "INVALID_ARG"
	ErrInvalidRoom      ErrCode = "INVALID_ROOM"
	ErrInvalidName      ErrCode = "INVALID_NAME"
	ErrRoomFull         ErrCode = "ROOM_FULL"
	ErrTakeover         ErrCode = "TAKEOVER"
	ErrNetworkError     ErrCode = "NETWORK_ERROR"
)

// Close reasons carried in the websocket close frame.
const (
	CloseTakeover         = "takeover"
	CloseRoomClosed       = "room-closed"
	CloseInvalidHandshake = "invalid-handshake"
)

type EditAction string

const (
	EditPlaceWall  EditAction = "PLACE_WALL"
	EditRemoveWall EditAction = "REMOVE_WALL"
	EditPlaceTrap  EditAction = "PLACE_TRAP"
)

// Client -> server.

type PlayerInputMsg struct {
	Type    string  `json:"type"`
	Forward float64 `json:"forward"`
	Turn    float64 `json:"turn"`
	Seq     int64   `json:"seq"`
}

type OwnerStartMsg struct {
	Type     string `json:"type"`
	MazeSize int    `json:"mazeSize"`
}

type OwnerEdit struct {
	Action EditAction `json:"action"`
	Cell   *Cell      `json:"cell,omitempty"`
	Edge   *Edge      `json:"edge,omitempty"`
}

type OwnerEditMsg struct {
	Type string    `json:"type"`
	Edit OwnerEdit `json:"edit"`
}

type OwnerMarkMsg struct {
	Type   string `json:"type"`
	Cell   Cell   `json:"cell"`
	Active bool   `json:"active"`
}

type PingMsg struct {
	Type string `json:"type"`
	Ts   int64  `json:"ts"`
}

// Server -> client.

type PongMsg struct {
	Type string `json:"type"`
	Ts   int64  `json:"ts"`
}

type ErrMsg struct {
	Type string  `json:"type"`
	Code ErrCode `json:"code"`
}

type StateMsg struct {
	Type    string       `json:"type"`
	Payload StatePayload `json:"payload"`
}

type StatePayload struct {
	Seq      int64     `json:"seq"`
	Full     bool      `json:"full"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Changes  *Delta    `json:"changes,omitempty"`
}

// PlayerView is the player sub-record of a snapshot.
type PlayerView struct {
	Position       Vector2 `json:"position"`
	Velocity       Vector2 `json:"velocity"`
	Angle          float64 `json:"angle"`
	PredictionHits int     `json:"predictionHits"`
	Score          int     `json:"score"`
	Slowed         bool    `json:"slowed"`
}

// OwnerView is the owner sub-record of a snapshot. Small enough that deltas
// carry it whole when anything inside changed.
type OwnerView struct {
	WallStock            int              `json:"wallStock"`
	WallRemoveLeft       int              `json:"wallRemoveLeft"`
	TrapCharges          int              `json:"trapCharges"`
	EditCooldownUntil    int64            `json:"editCooldownUntil"` // unix ms
	EditCooldownDuration int64            `json:"editCooldownDuration"`
	ForbiddenDistance    int              `json:"forbiddenDistance"`
	PredictionLimit      int              `json:"predictionLimit"`
	PredictionHits       int              `json:"predictionHits"`
	PredictionMarks      []PredictionMark `json:"predictionMarks"`
	Traps                []Trap           `json:"traps"`
	Points               []Cell           `json:"points"`
}

type MazeView struct {
	Seed  string     `json:"seed"`
	Start Cell       `json:"start"`
	Goal  Cell       `json:"goal"`
	Cells []MazeCell `json:"cells"`
}

// Snapshot is the full authoritative room state as seen on the wire.
type Snapshot struct {
	RoomID              string      `json:"roomId"`
	Phase               GamePhase   `json:"phase"`
	PhaseEndsAt         int64       `json:"phaseEndsAt,omitempty"` // unix ms, 0 = open-ended
	MazeSize            int         `json:"mazeSize,omitempty"`
	UpdatedAt           int64       `json:"updatedAt"` // unix ms
	CountdownDurationMs int64       `json:"countdownDurationMs"`
	PrepDurationMs      int64       `json:"prepDurationMs"`
	ExploreDurationMs   int64       `json:"exploreDurationMs"`
	TargetScore         int         `json:"targetScore"`
	PointCompensation   int         `json:"pointCompensationAward"`
	Paused              bool        `json:"paused"`
	PauseReason         string      `json:"pauseReason,omitempty"`
	PauseExpiresAt      int64       `json:"pauseExpiresAt,omitempty"` // unix ms
	PauseRemainingMs    int64       `json:"pauseRemainingMs,omitempty"`
	PausePhase          GamePhase   `json:"pausePhase,omitempty"`
	Sessions            []SessionInfo `json:"sessions"`
	Player              *PlayerView `json:"player,omitempty"`
	Owner               *OwnerView  `json:"owner,omitempty"`
	Maze                *MazeView   `json:"maze,omitempty"`
}

// Delta is a field-wise diff between two snapshots. Nil pointers mean
// "unchanged"; the tombstone lists name traps/marks/points that went away
// since the baseline.
type Delta struct {
	UpdatedAt        int64         `json:"updatedAt"`
	Phase            *GamePhase    `json:"phase,omitempty"`
	PhaseEndsAt      *int64        `json:"phaseEndsAt,omitempty"`
	MazeSize         *int          `json:"mazeSize,omitempty"`
	TargetScore      *int          `json:"targetScore,omitempty"`
	Paused           *bool         `json:"paused,omitempty"`
	PauseReason      *string       `json:"pauseReason,omitempty"`
	PauseExpiresAt   *int64        `json:"pauseExpiresAt,omitempty"`
	PauseRemainingMs *int64        `json:"pauseRemainingMs,omitempty"`
	PausePhase       *GamePhase    `json:"pausePhase,omitempty"`
	Sessions         []SessionInfo `json:"sessions,omitempty"`
	Player           *PlayerView   `json:"player,omitempty"`
	Owner            *OwnerView    `json:"owner,omitempty"`
	Maze             *MazeView     `json:"maze,omitempty"`
	CellsChanged     []MazeCell    `json:"cellsChanged,omitempty"`
	TrapsRemoved     []Cell        `json:"trapsRemoved,omitempty"`
	MarksRemoved     []Cell        `json:"marksRemoved,omitempty"`
	PointsRemoved    []Cell        `json:"pointsRemoved,omitempty"`
}
