package game

import (
	"github.com/farlane23/mazeduel-backend/internal"
)

// =============================================================================
// PHASE CLOCK
// =============================================================================

type PauseReason string

const (
	PauseNone       PauseReason = "none"
	PauseDisconnect PauseReason = "disconnect"
)

type ClockEvent int

const (
	EventNone ClockEvent = iota
	EventPhaseExpired
	EventPauseTimeout
)

// PhaseClock is the per-room monotonic phase scheduler. All times are
// simulation ticks; zero means open-ended. Pause captures the remaining
// duration rather than an absolute end, so repeated pauses cannot drift.
type PhaseClock struct {
	Phase       internal.GamePhase
	PhaseEndsAt int64 // tick, 0 = open-ended

	Paused           bool
	Reason           PauseReason
	PauseExpiresAt   int64
	PausePhase       internal.GamePhase
	RemainderAtPause int64 // ticks
	AbsentRole       internal.Role
}

func NewPhaseClock() *PhaseClock {
	return &PhaseClock{Phase: internal.PhaseLobby, Reason: PauseNone}
}

// Enter moves to phase with the given duration in ticks (0 = open-ended).
// Idempotent when already in the phase with a non-past deadline.
func (pc *PhaseClock) Enter(phase internal.GamePhase, durationTicks int64, now int64) {
	if pc.Phase == phase && !pc.Paused && (pc.PhaseEndsAt == 0 || pc.PhaseEndsAt > now) {
		return
	}
	pc.Phase = phase
	if durationTicks > 0 {
		pc.PhaseEndsAt = now + durationTicks
	} else {
		pc.PhaseEndsAt = 0
	}
	pc.clearPause()
}

// Tick checks deadlines. While paused only the grace deadline can fire.
func (pc *PhaseClock) Tick(now int64) ClockEvent {
	if pc.Paused {
		if pc.PauseExpiresAt > 0 && now >= pc.PauseExpiresAt {
			return EventPauseTimeout
		}
		return EventNone
	}
	if pc.PhaseEndsAt > 0 && now >= pc.PhaseEndsAt {
		return EventPhaseExpired
	}
	return EventNone
}

// Pause halts the phase deadline and arms the grace deadline. No-op while
// already paused.
func (pc *PhaseClock) Pause(reason PauseReason, absent internal.Role, graceTicks int64, now int64) {
	if pc.Paused {
		return
	}
	if pc.PhaseEndsAt > 0 {
		pc.RemainderAtPause = pc.PhaseEndsAt - now
		if pc.RemainderAtPause < 0 {
			pc.RemainderAtPause = 0
		}
	} else {
		pc.RemainderAtPause = 0
	}
	pc.Paused = true
	pc.Reason = reason
	pc.AbsentRole = absent
	pc.PauseExpiresAt = now + graceTicks
	pc.PausePhase = pc.Phase
}

// Resume restores the captured remainder onto the current clock.
func (pc *PhaseClock) Resume(now int64) {
	if !pc.Paused {
		return
	}
	if pc.RemainderAtPause > 0 {
		pc.PhaseEndsAt = now + pc.RemainderAtPause
	} else if pc.PhaseEndsAt != 0 {
		pc.PhaseEndsAt = now
	}
	pc.clearPause()
}

// Remaining returns ticks until phase end (the frozen remainder while
// paused), or -1 for open-ended phases.
func (pc *PhaseClock) Remaining(now int64) int64 {
	if pc.Paused {
		return pc.RemainderAtPause
	}
	if pc.PhaseEndsAt == 0 {
		return -1
	}
	r := pc.PhaseEndsAt - now
	if r < 0 {
		r = 0
	}
	return r
}

// PauseRemaining returns ticks of grace left, 0 when not paused.
func (pc *PhaseClock) PauseRemaining(now int64) int64 {
	if !pc.Paused {
		return 0
	}
	r := pc.PauseExpiresAt - now
	if r < 0 {
		r = 0
	}
	return r
}

func (pc *PhaseClock) clearPause() {
	pc.Paused = false
	pc.Reason = PauseNone
	pc.PauseExpiresAt = 0
	pc.PausePhase = ""
	pc.RemainderAtPause = 0
	pc.AbsentRole = ""
}
