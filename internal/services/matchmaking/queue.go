package matchmaking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/clock"
	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/memory"
)

// Publisher delivers matchmaking events
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

// SessionStarter creates the session for a pair of matched players
type SessionStarter interface {
	CreateSession(ctx context.Context, mode model.Mode, black, white model.PlayerID, cfg model.SessionConfig) (*model.Session, error)
}

// Config holds matchmaking settings
type Config struct {
	TickInterval time.Duration
	// Window is the largest rating gap paired straight away
	Window int
	// The window grows by WidenPerStep for every WidenStep waited, up to MaxWindow
	WidenStep      time.Duration
	WidenPerStep   int
	MaxWindow      int
	StarterTickets int
}

// DefaultConfig returns the default matchmaking settings
func DefaultConfig() Config {
	return Config{
		TickInterval:   time.Second,
		Window:         100,
		WidenStep:      10 * time.Second,
		WidenPerStep:   50,
		MaxWindow:      400,
		StarterTickets: 10,
	}
}

// Window returns the rating gap accepted after waiting for wait
func Window(cfg Config, wait time.Duration) int {
	w := cfg.Window
	if cfg.WidenStep > 0 && wait > 0 {
		w += cfg.WidenPerStep * int(wait/cfg.WidenStep)
	}
	if cfg.MaxWindow > 0 && w > cfg.MaxWindow {
		w = cfg.MaxWindow
	}
	return w
}

// Queue pairs waiting players by rating. Queue state lives in the shared
// store; while the store is unreachable an in-process queue takes over until
// a tick finds the store answering again. Presence is only ever kept in the
// shared store, where the session controller also writes it.
type Queue struct {
	shared    storage.Storage
	fallback  *memory.Storage
	records   storage.Records
	sessions  SessionStarter
	publisher Publisher
	clock     clock.Clock
	random    random.Random
	cfg       Config
	logger    *slog.Logger

	mu       sync.RWMutex
	degraded bool
}

// NewQueue creates a matchmaking queue
func NewQueue(
	shared storage.Storage,
	records storage.Records,
	sessions SessionStarter,
	publisher Publisher,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Queue {
	return &Queue{
		shared:    shared,
		fallback:  memory.New(),
		records:   records,
		sessions:  sessions,
		publisher: publisher,
		clock:     clock,
		random:    random,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "matchmaking")),
	}
}

// Degraded reports whether the in-process fallback queue is in use
func (q *Queue) Degraded() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.degraded
}

func (q *Queue) store() storage.Storage {
	if q.Degraded() {
		return q.fallback
	}
	return q.shared
}

// with runs fn against the active store, switching to the fallback when
// the shared store is unavailable
func (q *Queue) with(fn func(s storage.Storage) error) error {
	s := q.store()
	err := fn(s)
	if err == nil || !errors.Is(err, model.ErrStoreUnavailable) || s == storage.Storage(q.fallback) {
		return err
	}
	q.degrade(err)
	return fn(q.fallback)
}

func (q *Queue) degrade(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.degraded {
		q.degraded = true
		q.logger.Warn("shared store unavailable, using in-process queue", slog.String("error", err.Error()))
	}
}

// presence reads a player's status from the shared store. While the store
// is unreachable every player counts as eligible.
func (q *Queue) presence(ctx context.Context, id model.PlayerID) (model.PresenceStatus, error) {
	status, err := q.shared.GetPresence(ctx, id)
	if errors.Is(err, model.ErrStoreUnavailable) {
		q.degrade(err)
		return model.PresenceEligible, nil
	}
	return status, err
}

// reconnect moves back to the shared store once it answers again, carrying
// over whatever was queued in process meanwhile
func (q *Queue) reconnect(ctx context.Context) {
	if !q.Degraded() {
		return
	}
	if _, err := q.shared.ListQueue(ctx, model.ModeStandard); err != nil {
		return
	}

	q.mu.Lock()
	q.degraded = false
	q.mu.Unlock()

	moved := 0
	for _, mode := range model.AllModes {
		pending, err := q.fallback.ListQueue(ctx, mode)
		if err != nil {
			continue
		}
		for _, c := range pending {
			if err := q.shared.Enqueue(ctx, c); err != nil {
				q.logger.Error("failed to move queued player",
					slog.String("player_id", string(c.PlayerID)),
					slog.String("mode", string(mode)),
					slog.String("error", err.Error()))
				continue
			}
			_ = q.fallback.Dequeue(ctx, mode, c.PlayerID)
			moved++
		}
	}
	q.logger.Info("shared store recovered", slog.Int("moved", moved))
}

// Enqueue adds a player to the queue for mode. Unknown players are created
// with the default rating and starter tickets.
func (q *Queue) Enqueue(ctx context.Context, playerID model.PlayerID, mode model.Mode) (model.Candidate, error) {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return model.Candidate{}, model.Invalid(err)
	}

	presence, err := q.presence(ctx, playerID)
	if err != nil {
		return model.Candidate{}, err
	}
	if presence != model.PresenceEligible {
		return model.Candidate{}, model.ErrNotEligible
	}

	player, err := q.player(ctx, playerID)
	if err != nil {
		return model.Candidate{}, err
	}
	if player.Tickets[mode] <= 0 {
		return model.Candidate{}, model.ErrNoTicket
	}

	candidate := model.Candidate{
		PlayerID:   playerID,
		Rating:     player.Rating,
		Mode:       mode,
		EnqueuedAt: q.clock.Now(),
	}
	if err := q.with(func(s storage.Storage) error {
		return s.Enqueue(ctx, candidate)
	}); err != nil {
		return model.Candidate{}, err
	}

	q.logger.Info("player queued",
		slog.String("player_id", string(playerID)),
		slog.String("mode", string(mode)),
		slog.Int("rating", player.Rating))
	return candidate, nil
}

func (q *Queue) player(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	player, err := q.records.GetPlayer(ctx, id)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	now := q.clock.Now()
	player = &model.Player{
		ID:          id,
		DisplayName: string(id),
		Rating:      model.DefaultRating,
		Tickets:     make(map[model.Mode]int, len(model.AllModes)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, m := range model.AllModes {
		player.Tickets[m] = q.cfg.StarterTickets
	}
	if err := q.records.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	q.logger.Info("player created", slog.String("player_id", string(id)))
	return player, nil
}

// Dequeue cancels a queued entry without side effects
func (q *Queue) Dequeue(ctx context.Context, playerID model.PlayerID, mode model.Mode) error {
	err := q.with(func(s storage.Storage) error {
		return s.Dequeue(ctx, mode, playerID)
	})
	if err != nil {
		return err
	}
	q.logger.Info("player left queue",
		slog.String("player_id", string(playerID)),
		slog.String("mode", string(mode)))
	return nil
}

// Candidates lists the queue for mode by ascending rating
func (q *Queue) Candidates(ctx context.Context, mode model.Mode) ([]model.Candidate, error) {
	var out []model.Candidate
	err := q.with(func(s storage.Storage) error {
		var err error
		out, err = s.ListQueue(ctx, mode)
		return err
	})
	return out, err
}

// SetPresence records a player's own availability. Only the session
// controller moves players in and out of games.
func (q *Queue) SetPresence(ctx context.Context, playerID model.PlayerID, status model.PresenceStatus) error {
	if status == model.PresenceInGame {
		return model.ErrInvalidPresence
	}
	current, err := q.shared.GetPresence(ctx, playerID)
	if err != nil {
		return err
	}
	if current == model.PresenceInGame {
		return model.ErrNotEligible
	}
	if err := q.shared.SetPresence(ctx, playerID, status); err != nil {
		return err
	}
	q.logger.Debug("presence changed",
		slog.String("player_id", string(playerID)),
		slog.String("status", string(status)))
	return nil
}

// Tick runs one pairing pass over every mode and returns the sessions created
func (q *Queue) Tick(ctx context.Context) []*model.Session {
	q.reconnect(ctx)

	var created []*model.Session
	for _, mode := range model.AllModes {
		created = append(created, q.tickMode(ctx, mode)...)
	}
	return created
}

func (q *Queue) tickMode(ctx context.Context, mode model.Mode) []*model.Session {
	candidates, err := q.Candidates(ctx, mode)
	if err != nil {
		q.logger.Warn("failed to list queue", slog.String("mode", string(mode)), slog.String("error", err.Error()))
		return nil
	}
	if len(candidates) < 2 {
		return nil
	}

	now := q.clock.Now()
	done := make(map[model.PlayerID]bool)
	var created []*model.Session

	for i, a := range candidates {
		if done[a.PlayerID] || !q.eligible(ctx, a.PlayerID) {
			continue
		}
		for _, b := range candidates[i+1:] {
			if done[b.PlayerID] {
				continue
			}
			if b.Rating-a.Rating > Window(q.cfg, now.Sub(earliest(a.EnqueuedAt, b.EnqueuedAt))) {
				continue
			}
			if !q.eligible(ctx, b.PlayerID) {
				done[b.PlayerID] = true
				continue
			}

			sess, gone := q.pair(ctx, a, b)
			for _, id := range gone {
				done[id] = true
			}
			if sess != nil {
				created = append(created, sess)
			}
			if done[a.PlayerID] {
				break
			}
		}
	}
	return created
}

func (q *Queue) eligible(ctx context.Context, id model.PlayerID) bool {
	presence, err := q.presence(ctx, id)
	return err == nil && presence == model.PresenceEligible
}

// pair turns two candidates into a session. It returns the session, if
// one was created, and the players that are no longer available to pair
// in this pass.
func (q *Queue) pair(ctx context.Context, a, b model.Candidate) (*model.Session, []model.PlayerID) {
	mode := a.Mode
	logger := q.logger.With(
		slog.String("mode", string(mode)),
		slog.String("first", string(a.PlayerID)),
		slog.String("second", string(b.PlayerID)))

	// A failed removal means the candidate cancelled in the meantime
	if err := q.remove(ctx, a); err != nil {
		logger.Debug("pairing skipped", slog.String("error", err.Error()))
		return nil, []model.PlayerID{a.PlayerID}
	}
	if err := q.remove(ctx, b); err != nil {
		logger.Debug("pairing skipped", slog.String("error", err.Error()))
		q.requeue(ctx, a)
		return nil, []model.PlayerID{b.PlayerID}
	}

	if err := q.records.ConsumeTicket(ctx, a.PlayerID, mode); err != nil {
		logger.Warn("ticket unavailable", slog.String("player_id", string(a.PlayerID)), slog.String("error", err.Error()))
		q.requeue(ctx, b)
		return nil, []model.PlayerID{a.PlayerID}
	}
	if err := q.records.ConsumeTicket(ctx, b.PlayerID, mode); err != nil {
		logger.Warn("ticket unavailable", slog.String("player_id", string(b.PlayerID)), slog.String("error", err.Error()))
		q.refund(ctx, a.PlayerID, mode)
		q.requeue(ctx, a)
		return nil, []model.PlayerID{b.PlayerID}
	}

	black, white := a.PlayerID, b.PlayerID
	if q.random.Coin() {
		black, white = white, black
	}
	sess, err := q.sessions.CreateSession(ctx, mode, black, white, model.DefaultSessionConfig(mode))
	if err != nil {
		logger.Error("failed to create session", slog.String("error", err.Error()))
		q.refund(ctx, a.PlayerID, mode)
		q.refund(ctx, b.PlayerID, mode)
		q.requeue(ctx, a)
		q.requeue(ctx, b)
		return nil, []model.PlayerID{a.PlayerID, b.PlayerID}
	}

	for _, id := range []model.PlayerID{a.PlayerID, b.PlayerID} {
		if err := q.shared.SetPresence(ctx, id, model.PresenceInGame); err != nil {
			logger.Warn("failed to set presence", slog.String("player_id", string(id)), slog.String("error", err.Error()))
		}
		q.withdraw(ctx, id, mode)
	}

	logger.Info("match found", slog.String("session_id", string(sess.ID)))
	if q.publisher != nil {
		q.publisher.Publish(ctx, model.Event{
			Type:      model.EventMatchFound,
			Timestamp: q.clock.Now(),
			SessionID: sess.ID,
			Payload: model.MatchFoundPayload{
				Mode:    mode,
				Players: map[model.Color]model.PlayerID{model.Black: black, model.White: white},
			},
		})
	}
	return sess, []model.PlayerID{a.PlayerID, b.PlayerID}
}

func (q *Queue) remove(ctx context.Context, c model.Candidate) error {
	return q.with(func(s storage.Storage) error {
		return s.Dequeue(ctx, c.Mode, c.PlayerID)
	})
}

// withdraw drops a matched player's entries in every other mode
func (q *Queue) withdraw(ctx context.Context, id model.PlayerID, matched model.Mode) {
	for _, mode := range model.AllModes {
		if mode == matched {
			continue
		}
		err := q.with(func(s storage.Storage) error {
			return s.Dequeue(ctx, mode, id)
		})
		switch {
		case err == nil:
			q.logger.Debug("withdrew matched player",
				slog.String("player_id", string(id)),
				slog.String("mode", string(mode)))
		case !errors.Is(err, model.ErrNotQueued):
			q.logger.Warn("failed to withdraw matched player",
				slog.String("player_id", string(id)),
				slog.String("mode", string(mode)),
				slog.String("error", err.Error()))
		}
	}
}

// requeue puts a candidate back with its original enqueue time
func (q *Queue) requeue(ctx context.Context, c model.Candidate) {
	if err := q.with(func(s storage.Storage) error {
		return s.Enqueue(ctx, c)
	}); err != nil {
		q.logger.Error("failed to requeue player",
			slog.String("player_id", string(c.PlayerID)),
			slog.String("error", err.Error()))
	}
}

func (q *Queue) refund(ctx context.Context, id model.PlayerID, mode model.Mode) {
	if err := q.records.RefundTicket(ctx, id, mode); err != nil {
		q.logger.Error("failed to refund ticket",
			slog.String("player_id", string(id)),
			slog.String("mode", string(mode)),
			slog.String("error", err.Error()))
	}
}

// Run pairs at the configured interval until ctx is cancelled
func (q *Queue) Run(ctx context.Context) {
	ticker := q.clock.NewTicker(q.cfg.TickInterval)
	defer ticker.Stop()

	q.logger.Info("matchmaking started", slog.Duration("interval", q.cfg.TickInterval))
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("matchmaking stopped")
			return
		case <-ticker.C():
			q.Tick(ctx)
		}
	}
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
