package gameclock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/clock"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

// Publisher delivers events to session subscribers
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

// TimeoutHandler is invoked by the tick when a side runs out of time
type TimeoutHandler func(ctx context.Context, id model.SessionID, loser model.Color)

// Config holds clock service settings
type Config struct {
	TickInterval time.Duration
	MaxRetries   int
}

// DefaultConfig returns the default clock service settings
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second,
		MaxRetries:   5,
	}
}

// Service owns the authoritative clocks of all sessions
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	publisher Publisher
	cfg       Config
	logger    *slog.Logger

	mu        sync.RWMutex
	onTimeout TimeoutHandler
}

// NewService creates a clock service
func NewService(
	storage storage.Storage,
	clock clock.Clock,
	publisher Publisher,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &Service{
		storage:   storage,
		clock:     clock,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "gameclock")),
	}
}

// SetTimeoutHandler registers the handler called when the tick detects expiry
func (s *Service) SetTimeoutHandler(h TimeoutHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTimeout = h
}

func (s *Service) timeoutHandler() TimeoutHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onTimeout
}

// Start creates and runs the clock of a session
func (s *Service) Start(ctx context.Context, id model.SessionID, cfg model.ClockConfig, first model.Color) (*model.Clock, error) {
	now := s.clock.Now()
	c := NewClock(id, cfg, now)
	Start(c, first, now)
	c.Version = 1

	if err := s.storage.CompareAndSwapClock(ctx, c, 0); err != nil {
		return nil, err
	}
	if err := s.storage.AddRunningClock(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("clock started",
		slog.String("session_id", string(id)),
		slog.String("discipline", string(cfg.Discipline)),
		slog.String("first", first.String()))
	s.publishSnapshot(ctx, c)
	return c, nil
}

// update applies fn to the stored clock with compare-and-swap retries
func (s *Service) update(ctx context.Context, id model.SessionID, fn func(c *model.Clock) error) (*model.Clock, error) {
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		c, err := s.storage.GetClock(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := c.Version
		if err := fn(c); err != nil {
			return nil, err
		}
		c.Version = expected + 1

		err = s.storage.CompareAndSwapClock(ctx, c, expected)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, model.ErrConcurrentUpdate) {
			return nil, err
		}
		s.logger.Debug("clock update conflict, retrying",
			slog.String("session_id", string(id)),
			slog.Int("attempt", attempt+1))
	}
	return nil, model.ErrConcurrentUpdate
}

// SwitchTurn completes mover's turn. The returned clock has Expired set if
// the mover ran out of time before the move arrived.
func (s *Service) SwitchTurn(ctx context.Context, id model.SessionID, mover model.Color) (*model.Clock, error) {
	c, err := s.update(ctx, id, func(c *model.Clock) error {
		if c.Expired != model.Empty {
			return nil
		}
		if c.Turn != mover {
			return model.ErrNotPlayerTurn
		}
		SwitchTurn(c, s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.Expired != model.Empty {
		s.removeRunning(ctx, id)
		return c, nil
	}
	s.publishSnapshot(ctx, c)
	return c, nil
}

// Pause suspends charging for the reveal window
func (s *Service) Pause(ctx context.Context, id model.SessionID, window time.Duration) (*model.Clock, error) {
	c, err := s.update(ctx, id, func(c *model.Clock) error {
		Pause(c, s.clock.Now(), window)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, id, model.EventClockPaused, model.ClockSnapshotPayload{Clock: *c})
	return c, nil
}

// Resume releases one pause
func (s *Service) Resume(ctx context.Context, id model.SessionID) (*model.Clock, error) {
	c, err := s.update(ctx, id, func(c *model.Clock) error {
		Resume(c, s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !c.Paused() {
		s.publish(ctx, id, model.EventClockResumed, model.ClockSnapshotPayload{Clock: *c})
	}
	return c, nil
}

// Snapshot returns the clock as of now without persisting the charge
func (s *Service) Snapshot(ctx context.Context, id model.SessionID) (*model.Clock, error) {
	c, err := s.storage.GetClock(ctx, id)
	if err != nil {
		return nil, err
	}
	Advance(c, s.clock.Now())
	return c, nil
}

// Stop halts the clock of a finished session
func (s *Service) Stop(ctx context.Context, id model.SessionID) error {
	_, err := s.update(ctx, id, func(c *model.Clock) error {
		Stop(c, s.clock.Now())
		return nil
	})
	if err != nil && !errors.Is(err, model.ErrClockNotFound) {
		return err
	}
	s.removeRunning(ctx, id)
	return nil
}

// Tick charges every running clock once, publishing snapshots and
// reporting expiries to the timeout handler
func (s *Service) Tick(ctx context.Context) {
	ids, err := s.storage.ListRunningClocks(ctx)
	if err != nil {
		s.logger.Error("failed to list running clocks", slog.String("error", err.Error()))
		return
	}

	for _, id := range ids {
		var expired bool
		c, err := s.update(ctx, id, func(c *model.Clock) error {
			expired = Advance(c, s.clock.Now())
			return nil
		})
		if errors.Is(err, model.ErrClockNotFound) {
			s.removeRunning(ctx, id)
			continue
		}
		if err != nil {
			s.logger.Warn("clock tick failed",
				slog.String("session_id", string(id)),
				slog.String("error", err.Error()))
			continue
		}

		if !c.Running {
			s.removeRunning(ctx, id)
		}
		if !expired {
			if c.Running {
				s.publishSnapshot(ctx, c)
			}
			continue
		}

		s.logger.Info("clock expired",
			slog.String("session_id", string(id)),
			slog.String("loser", c.Expired.String()))
		if h := s.timeoutHandler(); h != nil {
			h(ctx, id, c.Expired)
		}
	}
}

// Run ticks at the configured interval until ctx is cancelled
func (s *Service) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.logger.Info("clock ticker started", slog.Duration("interval", s.cfg.TickInterval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("clock ticker stopped")
			return
		case <-ticker.C():
			s.Tick(ctx)
		}
	}
}

func (s *Service) removeRunning(ctx context.Context, id model.SessionID) {
	if err := s.storage.RemoveRunningClock(ctx, id); err != nil {
		s.logger.Warn("failed to remove running clock",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()))
	}
}

func (s *Service) publishSnapshot(ctx context.Context, c *model.Clock) {
	s.publish(ctx, c.SessionID, model.EventClockSnapshot, model.ClockSnapshotPayload{Clock: *c})
}

func (s *Service) publish(ctx context.Context, id model.SessionID, typ model.EventType, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, model.Event{
		Type:      typ,
		Timestamp: s.clock.Now(),
		SessionID: id,
		Payload:   payload,
	})
}
