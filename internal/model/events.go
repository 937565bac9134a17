package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Session events
	EventSessionCreated EventType = "session_created"
	EventPhaseChanged   EventType = "phase_changed"
	EventPlayerReady    EventType = "player_ready"
	EventBidRound       EventType = "bid_round"
	EventMoveApplied    EventType = "move_applied"
	EventStoneRevealed  EventType = "stone_revealed"
	EventGameOver       EventType = "game_over"

	// Clock events
	EventClockSnapshot EventType = "clock_snapshot"
	EventClockPaused   EventType = "clock_paused"
	EventClockResumed  EventType = "clock_resumed"

	// Matchmaking events
	EventMatchFound EventType = "match_found"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID SessionID
	PlayerID  PlayerID // The player who triggered or is affected
	Payload   any      // Type-specific data
}

// PhaseChangedPayload contains data for phase changed events
type PhaseChangedPayload struct {
	From    Phase
	To      Phase
	PreGame PreGameKind
	Players map[Color]PlayerID
}

// PlayerReadyPayload contains data for player ready events
type PlayerReadyPayload struct {
	Color Color
}

// BidRoundPayload announces a tied bid and the next round
type BidRoundPayload struct {
	Round int
	Tied  int
}

// MoveAppliedPayload contains data for move applied events.
// Hidden placements are announced without their point.
type MoveAppliedPayload struct {
	Move     Move
	Captured map[Color]int
	NextTurn Color
}

// StoneRevealedPayload contains data for stone revealed events
type StoneRevealedPayload struct {
	Points []Point
	Owner  Color
}

// ClockSnapshotPayload carries a clock state
type ClockSnapshotPayload struct {
	Clock Clock
}

// GameOverPayload contains the terminal outcome
type GameOverPayload struct {
	Outcome Outcome
	Players map[Color]PlayerID
}

// MatchFoundPayload contains data for match found events
type MatchFoundPayload struct {
	Mode    Mode
	Players map[Color]PlayerID
}
