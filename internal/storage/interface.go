package storage

import (
	"context"
	"sort"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// Storage is the fast shared state used by every server instance: live
// sessions, clocks, the matchmaking queue and presence. Writes of sessions
// and clocks are compare-and-swap on their Version field.
type Storage interface {
	// Session operations
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	// CompareAndSwapSession stores session if the stored version equals
	// expected. An expected version of 0 creates the session.
	CompareAndSwapSession(ctx context.Context, session *model.Session, expected int64) error
	DeleteSession(ctx context.Context, id model.SessionID) error

	// Deadline index for pre-game and ready-wait phases
	SetDeadline(ctx context.Context, id model.SessionID, at time.Time) error
	ClearDeadline(ctx context.Context, id model.SessionID) error
	DueDeadlines(ctx context.Context, now time.Time) ([]model.SessionID, error)

	// Clock operations
	GetClock(ctx context.Context, id model.SessionID) (*model.Clock, error)
	CompareAndSwapClock(ctx context.Context, clock *model.Clock, expected int64) error
	DeleteClock(ctx context.Context, id model.SessionID) error
	AddRunningClock(ctx context.Context, id model.SessionID) error
	RemoveRunningClock(ctx context.Context, id model.SessionID) error
	ListRunningClocks(ctx context.Context) ([]model.SessionID, error)

	// Queue operations, candidates are returned by ascending rating
	Enqueue(ctx context.Context, candidate model.Candidate) error
	Dequeue(ctx context.Context, mode model.Mode, playerID model.PlayerID) error
	ListQueue(ctx context.Context, mode model.Mode) ([]model.Candidate, error)

	// Presence operations, unknown players are eligible
	GetPresence(ctx context.Context, playerID model.PlayerID) (model.PresenceStatus, error)
	SetPresence(ctx context.Context, playerID model.PlayerID, status model.PresenceStatus) error
}

// Records is the durable store of players and finished games
type Records interface {
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	SavePlayer(ctx context.Context, player *model.Player) error

	// ConsumeTicket takes one ticket for mode, failing with ErrNoTicket
	ConsumeTicket(ctx context.Context, id model.PlayerID, mode model.Mode) error
	RefundTicket(ctx context.Context, id model.PlayerID, mode model.Mode) error

	SaveGameRecord(ctx context.Context, record *model.GameRecord) error
	GetGameRecord(ctx context.Context, id model.SessionID) (*model.GameRecord, error)
	ListGameRecords(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.GameRecord, error)
}

// SortCandidates orders by rating, then by enqueue time, then by id
func SortCandidates(candidates []model.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Rating != b.Rating {
			return a.Rating < b.Rating
		}
		if !a.EnqueuedAt.Equal(b.EnqueuedAt) {
			return a.EnqueuedAt.Before(b.EnqueuedAt)
		}
		return a.PlayerID < b.PlayerID
	})
}
