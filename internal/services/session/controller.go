package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/clock"
	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/rules"
	"github.com/BlueStarAcademy/sudampvp/internal/services/ai"
	"github.com/BlueStarAcademy/sudampvp/internal/services/gameclock"
	"github.com/BlueStarAcademy/sudampvp/internal/services/scoring"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

// Publisher delivers events to session subscribers
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

// Config holds session controller settings
type Config struct {
	DeadlineInterval time.Duration
	AIMoveTimeout    time.Duration
	KFactor          float64
}

// DefaultConfig returns the default session controller settings
func DefaultConfig() Config {
	return Config{
		DeadlineInterval: time.Second,
		AIMoveTimeout:    30 * time.Second,
		KFactor:          32,
	}
}

// errUnchanged tells run that nothing needs to be written
var errUnchanged = errors.New("session unchanged")

// Controller manages the session state machine and the move pipeline
type Controller struct {
	storage   storage.Storage
	records   storage.Records
	clocks    *gameclock.Service
	scorer    *scoring.Service
	suggester *ai.Service
	engine    *rules.Engine
	publisher Publisher
	clock     clock.Clock
	random    random.Random
	cfg       Config
	logger    *slog.Logger

	locks *keyedMutex
	aiWG  sync.WaitGroup
}

// NewController creates a session controller and registers it as the
// clock's timeout handler
func NewController(
	storage storage.Storage,
	records storage.Records,
	clocks *gameclock.Service,
	scorer *scoring.Service,
	suggester *ai.Service,
	engine *rules.Engine,
	publisher Publisher,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	c := &Controller{
		storage:   storage,
		records:   records,
		clocks:    clocks,
		scorer:    scorer,
		suggester: suggester,
		engine:    engine,
		publisher: publisher,
		clock:     clock,
		random:    random,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "session")),
		locks:     newKeyedMutex(),
	}
	clocks.SetTimeoutHandler(c.HandleTimeout)
	return c
}

// effects collects what has to happen once a change is stored
type effects struct {
	now      time.Time
	events   []model.Event
	deadline bool        // PhaseDeadline changed
	start    bool        // play begins, start the clock
	clock    *clockStep  // move made, hand over the clock
	next     model.Color // side to move after this change, AI check
	end      *ending
	err      error // returned to the caller after the effects ran
}

type clockStep struct {
	mover      model.Color
	pause      bool
	switchTurn bool
}

type ending struct {
	reason  model.EndReason
	outcome *model.Outcome
}

func (fx *effects) emit(typ model.EventType, player model.PlayerID, payload any) {
	fx.events = append(fx.events, model.Event{
		Type:      typ,
		Timestamp: fx.now,
		PlayerID:  player,
		Payload:   payload,
	})
}

// CreateSession starts a session between two players and moves it into its
// first negotiation phase
func (c *Controller) CreateSession(ctx context.Context, mode model.Mode, black, white model.PlayerID, cfg model.SessionConfig) (*model.Session, error) {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return nil, model.Invalid(err)
	}
	if black == "" || white == "" || black == white {
		return nil, model.Invalid(model.ErrNotParticipant)
	}
	if cfg.BoardSize <= 0 {
		cfg = model.DefaultSessionConfig(mode)
	}

	now := c.clock.Now()
	s := &model.Session{
		ID:        model.SessionID(c.random.UUID()),
		Mode:      mode,
		Phase:     model.PhaseCreated,
		PreGame:   model.PreGameNone,
		Config:    cfg,
		Players:   map[model.Color]model.PlayerID{model.Black: black, model.White: white},
		Ready:     map[model.Color]bool{model.Black: false, model.White: false},
		Connected: map[model.Color]bool{model.Black: true, model.White: true},
		Board:     model.NewBoard(cfg.BoardSize),
		Captured:  map[model.Color]int{model.Black: 0, model.White: 0},
		CreatedAt: now,
	}

	unlock := c.locks.Lock(s.ID)
	defer unlock()

	fx := &effects{now: now}
	fx.emit(model.EventSessionCreated, "", model.PhaseChangedPayload{
		From:    model.PhaseCreated,
		To:      model.PhaseCreated,
		Players: copyPlayers(s.Players),
	})
	c.begin(s, fx)

	if err := c.save(ctx, s, 0); err != nil {
		return nil, err
	}
	for _, id := range []model.PlayerID{black, white} {
		if !id.IsAI() {
			c.setPresence(ctx, id, model.PresenceInGame)
		}
	}

	c.logger.Info("session created",
		slog.String("session_id", string(s.ID)),
		slog.String("mode", string(mode)),
		slog.String("black", string(black)),
		slog.String("white", string(white)))

	return c.settle(ctx, s, fx), nil
}

// CreateAIGame starts an unrated session between player and a fresh AI
// opponent. Colors are drawn at random.
func (c *Controller) CreateAIGame(ctx context.Context, mode model.Mode, player model.PlayerID) (*model.Session, error) {
	if player == "" || player.IsAI() {
		return nil, model.Invalid(model.ErrNotParticipant)
	}
	if _, err := model.ParseMode(string(mode)); err != nil {
		return nil, model.Invalid(err)
	}
	cfg := model.DefaultSessionConfig(mode)
	cfg.Rated = false

	opponent := model.PlayerID(model.AIPrefix + c.random.UUID())
	black, white := player, opponent
	if c.random.Coin() {
		black, white = opponent, player
	}
	return c.CreateSession(ctx, mode, black, white, cfg)
}

// GetSession returns the full state of a session
func (c *Controller) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return c.storage.GetSession(ctx, id)
}

// Wait blocks until in-flight AI moves have been applied
func (c *Controller) Wait() {
	c.aiWG.Wait()
}

// run loads a session under its lock, lets fn change a copy, stores the copy
// with compare-and-swap and then carries out the collected effects
func (c *Controller) run(ctx context.Context, id model.SessionID, fn func(s *model.Session, fx *effects) error) (*model.Session, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	stored, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.IsTerminal() {
		return nil, model.ErrSessionFinished
	}

	s := stored.Clone()
	fx := &effects{now: c.clock.Now()}
	if err := fn(s, fx); err != nil {
		if errors.Is(err, errUnchanged) {
			return stored, nil
		}
		return nil, err
	}

	if err := c.save(ctx, s, stored.Version); err != nil {
		return nil, err
	}
	if fx.clock != nil && fx.end == nil {
		loser, err := c.stepClock(ctx, s, fx.clock)
		if err != nil {
			// The move stands only if the clock moved with it
			c.revert(ctx, stored, s)
			return nil, err
		}
		if loser != model.Empty {
			fx.end = &ending{outcome: timeoutOutcome(loser)}
		}
	}
	s = c.settle(ctx, s, fx)
	if fx.err != nil {
		return nil, fx.err
	}
	return s, nil
}

func (c *Controller) save(ctx context.Context, s *model.Session, expected int64) error {
	s.Version = expected + 1
	s.UpdatedAt = c.clock.Now()
	if err := c.storage.CompareAndSwapSession(ctx, s, expected); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_id", string(s.ID)),
			slog.Int64("expected_version", expected),
			slog.String("error", err.Error()))
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// settle runs the effects of a stored change. It returns the latest session,
// which differs from s when the change ended the game.
func (c *Controller) settle(ctx context.Context, s *model.Session, fx *effects) *model.Session {
	if fx.deadline {
		c.syncDeadline(ctx, s)
	}
	if fx.start {
		if _, err := c.clocks.Start(ctx, s.ID, s.Config.Clock, model.Black); err != nil {
			c.logger.Error("failed to start clock",
				slog.String("session_id", string(s.ID)),
				slog.String("error", err.Error()))
		}
	}
	for _, event := range fx.events {
		c.publish(ctx, s.ID, event)
	}

	if fx.end != nil {
		finished, err := c.finish(ctx, s, fx.end)
		if err != nil {
			if fx.err == nil {
				fx.err = err
			}
			return s
		}
		return finished
	}

	if fx.next != model.Empty && s.Players[fx.next].IsAI() {
		c.scheduleAI(s.ID)
	}
	return s
}

// stepClock hands the turn over after a stored move. It returns the mover's
// color if they had run out of time.
func (c *Controller) stepClock(ctx context.Context, s *model.Session, step *clockStep) (model.Color, error) {
	if step.pause {
		if _, err := c.clocks.Pause(ctx, s.ID, s.Config.RevealWindow); err != nil {
			c.logger.Warn("failed to pause clock",
				slog.String("session_id", string(s.ID)),
				slog.String("error", err.Error()))
		}
	}
	if !step.switchTurn {
		return model.Empty, nil
	}
	clk, err := c.clocks.SwitchTurn(ctx, s.ID, step.mover)
	if err != nil {
		c.logger.Error("failed to switch clock",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()))
		switch {
		case errors.Is(err, model.ErrNotPlayerTurn):
			return model.Empty, model.Invalid(err)
		case errors.Is(err, model.ErrConcurrentUpdate), errors.Is(err, model.ErrStoreUnavailable):
			return model.Empty, fmt.Errorf("switch clock for %s: %w", s.ID, err)
		default:
			return model.Empty, fmt.Errorf("%w: switch clock for %s: %v", model.ErrStoreUnavailable, s.ID, err)
		}
	}
	return clk.Expired, nil
}

// revert stores the state that applied replaced, as a newer version
func (c *Controller) revert(ctx context.Context, stored, applied *model.Session) {
	prev := stored.Clone()
	if err := c.save(ctx, prev, applied.Version); err != nil {
		c.logger.Error("failed to revert session, it is ahead of its clock",
			slog.String("session_id", string(applied.ID)),
			slog.String("error", err.Error()))
		return
	}
	c.logger.Warn("move reverted", slog.String("session_id", string(applied.ID)))
}

func (c *Controller) syncDeadline(ctx context.Context, s *model.Session) {
	var err error
	if s.PhaseDeadline.IsZero() {
		err = c.storage.ClearDeadline(ctx, s.ID)
	} else {
		err = c.storage.SetDeadline(ctx, s.ID, s.PhaseDeadline)
	}
	if err != nil {
		c.logger.Warn("failed to update deadline index",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()))
	}
}

func (c *Controller) setPresence(ctx context.Context, id model.PlayerID, status model.PresenceStatus) {
	if err := c.storage.SetPresence(ctx, id, status); err != nil {
		c.logger.Warn("failed to set presence",
			slog.String("player_id", string(id)),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
	}
}

func (c *Controller) publish(ctx context.Context, id model.SessionID, event model.Event) {
	if c.publisher == nil {
		return
	}
	event.SessionID = id
	if event.Timestamp.IsZero() {
		event.Timestamp = c.clock.Now()
	}
	c.publisher.Publish(ctx, event)
}

func copyPlayers(players map[model.Color]model.PlayerID) map[model.Color]model.PlayerID {
	out := make(map[model.Color]model.PlayerID, len(players))
	for k, v := range players {
		out[k] = v
	}
	return out
}

func participant(s *model.Session, player model.PlayerID) (model.Color, error) {
	color := s.ColorOf(player)
	if color == model.Empty {
		return model.Empty, model.ErrNotParticipant
	}
	return color, nil
}
