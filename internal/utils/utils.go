package utils

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// RoomCodeAlphabet is Crockford-like: 32 symbols, ambiguous 0/1/I/O removed.
const RoomCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const RoomCodeLength = 6

var nickPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,10}$`)

// GenerateRoomCode draws a fresh room code from the given RNG.
func GenerateRoomCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(RoomCodeLength)
	for i := 0; i < RoomCodeLength; i++ {
		b.WriteByte(RoomCodeAlphabet[rng.Intn(len(RoomCodeAlphabet))])
	}
	return b.String()
}

// NormalizeRoomCode upper-cases a client-supplied code for lookup.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidRoomCode checks length and alphabet membership.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(RoomCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// ValidNick checks the 2..10 char A-Z0-9_- nickname rule.
func ValidNick(nick string) bool {
	return nickPattern.MatchString(nick)
}

// GenerateID returns a fresh session identifier.
func GenerateID() string {
	return uuid.NewString()
}
