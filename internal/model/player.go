package model

import (
	"strings"
	"time"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// AIPrefix marks player ids driven by the AI collaborator
const AIPrefix = "ai-"

// IsAI returns true for AI-driven participants
func (id PlayerID) IsAI() bool {
	return strings.HasPrefix(string(id), AIPrefix)
}

// DefaultRating is assigned to players without a record
const DefaultRating = 1500

// Player is the persistent record of a participant
type Player struct {
	ID          PlayerID
	DisplayName string
	Rating      int
	Tickets     map[Mode]int
	Wins        int
	Losses      int
	Draws       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PresenceStatus is a player's availability for matchmaking
type PresenceStatus string

const (
	PresenceEligible   PresenceStatus = "eligible"
	PresenceInGame     PresenceStatus = "in_game"
	PresenceResting    PresenceStatus = "resting"
	PresenceSpectating PresenceStatus = "spectating"
)

// ParsePresence validates a presence name
func ParsePresence(s string) (PresenceStatus, error) {
	switch p := PresenceStatus(s); p {
	case PresenceEligible, PresenceInGame, PresenceResting, PresenceSpectating:
		return p, nil
	default:
		return "", ErrInvalidPresence
	}
}

// Candidate is a queued matchmaking entry
type Candidate struct {
	PlayerID   PlayerID
	Rating     int
	Mode       Mode
	EnqueuedAt time.Time
}

// GameRecord is the durable summary of a finished session
type GameRecord struct {
	SessionID  SessionID
	Mode       Mode
	Black      PlayerID
	White      PlayerID
	Winner     Color
	Reason     EndReason
	Score      map[Color]float64 `json:",omitempty"`
	Moves      int
	SGF        string
	Rated      bool
	StartedAt  time.Time
	FinishedAt time.Time
}
