package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farlane23/mazeduel-backend/internal"
)

func TestPhaseClockEnterAndExpire(t *testing.T) {
	pc := NewPhaseClock()
	assert.Equal(t, internal.PhaseLobby, pc.Phase)

	pc.Enter(internal.PhaseCountdown, 60, 100)
	assert.Equal(t, int64(160), pc.PhaseEndsAt)

	assert.Equal(t, EventNone, pc.Tick(159))
	assert.Equal(t, EventPhaseExpired, pc.Tick(160))
}

func TestPhaseClockEnterIdempotent(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhasePrep, 100, 0)
	pc.Enter(internal.PhasePrep, 100, 50) // same phase, deadline not past
	assert.Equal(t, int64(100), pc.PhaseEndsAt, "re-entry must not extend the phase")
}

func TestPhaseClockOpenEnded(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhaseResult, 0, 10)
	assert.Equal(t, EventNone, pc.Tick(1_000_000))
	assert.Equal(t, int64(-1), pc.Remaining(20))
}

func TestPauseResumeKeepsRemainder(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhaseExplore, 6000, 0)

	pc.Pause(PauseDisconnect, internal.RolePlayer, 1200, 1000)
	assert.True(t, pc.Paused)
	assert.Equal(t, int64(5000), pc.RemainderAtPause)
	assert.Equal(t, internal.PhaseExplore, pc.PausePhase)

	// pause(r,g,t) then resume(t): phaseEndsAt unchanged.
	pc.Resume(1000)
	assert.False(t, pc.Paused)
	assert.Equal(t, int64(6000), pc.PhaseEndsAt)
}

func TestPauseShiftsDeadlineByPausedTime(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhaseExplore, 6000, 0)
	pc.Pause(PauseDisconnect, internal.RolePlayer, 1200, 1000)
	pc.Resume(1600) // 600 ticks (~30s) away
	assert.Equal(t, int64(6600), pc.PhaseEndsAt)
}

func TestRepeatedPausesDoNotDrift(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhaseExplore, 6000, 0)
	now := int64(0)
	for i := 0; i < 10; i++ {
		now += 100
		pc.Pause(PauseDisconnect, internal.RolePlayer, 1200, now)
		pc.Resume(now) // instant reconnect
	}
	assert.Equal(t, int64(6000), pc.PhaseEndsAt)
}

func TestPauseWhilePausedIsNoop(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhaseExplore, 6000, 0)
	pc.Pause(PauseDisconnect, internal.RolePlayer, 1200, 1000)
	pc.Pause(PauseDisconnect, internal.RoleOwner, 1200, 1100)
	assert.Equal(t, internal.RolePlayer, pc.AbsentRole)
	assert.Equal(t, int64(2200), pc.PauseExpiresAt)
}

func TestPauseTimeout(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhaseExplore, 6000, 0)
	pc.Pause(PauseDisconnect, internal.RoleOwner, 1200, 1000)

	assert.Equal(t, EventNone, pc.Tick(2199))
	assert.Equal(t, EventPauseTimeout, pc.Tick(2200))
	// Phase deadline must not fire while paused.
	assert.NotEqual(t, EventPhaseExpired, pc.Tick(10_000))
}

func TestRemainingFrozenWhilePaused(t *testing.T) {
	pc := NewPhaseClock()
	pc.Enter(internal.PhaseExplore, 6000, 0)
	pc.Pause(PauseDisconnect, internal.RolePlayer, 1200, 2000)
	assert.Equal(t, int64(4000), pc.Remaining(2000))
	assert.Equal(t, int64(4000), pc.Remaining(2500), "remaining is frozen while paused")
	assert.Equal(t, int64(700), pc.PauseRemaining(2500))
}
