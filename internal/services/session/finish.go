package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/rules"
)

// Resign ends the session in the opponent's favour. Allowed in any phase
// before the game is over.
func (c *Controller) Resign(ctx context.Context, id model.SessionID, player model.PlayerID) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		color, err := participant(s, player)
		if err != nil {
			return err
		}
		if s.Phase == model.PhaseScoring {
			// The game is decided; finish it with the pending result
			fx.end = pendingEnding(s)
			return nil
		}
		fx.end = &ending{outcome: &model.Outcome{Winner: color.Opponent(), Reason: model.EndResignation}}
		return nil
	})
}

// HandleTimeout ends an active session after loser's clock expired
func (c *Controller) HandleTimeout(ctx context.Context, id model.SessionID, loser model.Color) {
	_, err := c.run(ctx, id, func(s *model.Session, fx *effects) error {
		if s.Phase != model.PhaseActive {
			return errUnchanged
		}
		fx.end = &ending{outcome: timeoutOutcome(loser)}
		return nil
	})
	if err != nil && !errors.Is(err, model.ErrSessionFinished) {
		c.logger.Error("failed to end session on timeout",
			slog.String("session_id", string(id)),
			slog.String("loser", loser.String()),
			slog.String("error", err.Error()))
	}
}

// Disconnect marks a player's connection as lost. The session is abandoned
// once no human participant is connected.
func (c *Controller) Disconnect(ctx context.Context, id model.SessionID, player model.PlayerID) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		color, err := participant(s, player)
		if err != nil {
			return err
		}
		if !s.Connected[color] {
			return errUnchanged
		}
		s.Connected[color] = false
		if s.Phase == model.PhaseScoring {
			return nil
		}

		for _, side := range []model.Color{model.Black, model.White} {
			if s.Connected[side] && !s.Players[side].IsAI() {
				return nil
			}
		}
		fx.end = &ending{outcome: &model.Outcome{Reason: model.EndAbandoned}}
		return nil
	})
}

// Reconnect marks a player as connected again
func (c *Controller) Reconnect(ctx context.Context, id model.SessionID, player model.PlayerID) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		color, err := participant(s, player)
		if err != nil {
			return err
		}
		if s.Connected[color] {
			return errUnchanged
		}
		s.Connected[color] = true
		return nil
	})
}

// Abandon ends a session without a winner
func (c *Controller) Abandon(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		fx.end = &ending{outcome: &model.Outcome{Reason: model.EndAbandoned}}
		return nil
	})
}

// finish scores the session if needed, writes the game record, stores the
// final state and only then announces the result. s must already be stored.
// When the record cannot be written the session is parked in scoring with
// its result and a deadline, so the deadline sweep finishes it later.
func (c *Controller) finish(ctx context.Context, s *model.Session, end *ending) (*model.Session, error) {
	outcome := end.outcome
	if outcome == nil {
		if s.Phase != model.PhaseScoring {
			if err := c.enterScoring(ctx, s, end.reason, nil); err != nil {
				return nil, err
			}
		}
		outcome = c.scorer.Score(ctx, s, end.reason)
	}
	if outcome.Reason == "" {
		outcome.Reason = end.reason
	}

	final := s.Clone()
	final.Phase = model.PhaseFinished
	final.PreGame = model.PreGameNone
	final.Outcome = outcome
	final.PendingEnd = ""
	final.PhaseDeadline = time.Time{}
	final.FinishedAt = c.clock.Now()

	if !rules.Replay(final).Equal(final.Board) {
		c.logger.Warn("move log does not reproduce the final board",
			slog.String("session_id", string(s.ID)),
			slog.String("mode", string(s.Mode)),
			slog.Int("moves", len(final.Moves)))
	}
	record := c.recordFor(final)
	if err := c.records.SaveGameRecord(ctx, record); err != nil {
		c.logger.Error("failed to save game record",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()))
		if s.Outcome == nil {
			if perr := c.enterScoring(ctx, s, outcome.Reason, outcome); perr != nil {
				c.logger.Error("failed to park session for retry",
					slog.String("session_id", string(s.ID)),
					slog.String("error", perr.Error()))
			}
		}
		return nil, fmt.Errorf("%w: save game record: %v", model.ErrStoreUnavailable, err)
	}

	from := s.Phase
	if err := c.save(ctx, final, s.Version); err != nil {
		return nil, err
	}
	s = final
	c.syncDeadline(ctx, s)
	c.updatePlayers(ctx, s, record.Rated)

	if err := c.clocks.Stop(ctx, s.ID); err != nil {
		c.logger.Warn("failed to stop clock",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()))
	}
	for _, id := range s.Players {
		if !id.IsAI() {
			c.setPresence(ctx, id, model.PresenceEligible)
		}
	}

	c.logger.Info("session finished",
		slog.String("session_id", string(s.ID)),
		slog.String("reason", string(outcome.Reason)),
		slog.String("winner", outcome.Winner.String()),
		slog.Float64("margin", outcome.Margin))

	c.publish(ctx, s.ID, model.Event{
		Type:    model.EventPhaseChanged,
		Payload: model.PhaseChangedPayload{From: from, To: model.PhaseFinished, Players: copyPlayers(s.Players)},
	})
	c.publish(ctx, s.ID, model.Event{
		Type:    model.EventGameOver,
		Payload: model.GameOverPayload{Outcome: *outcome, Players: copyPlayers(s.Players)},
	})
	return s, nil
}

// enterScoring stops play: the clock halts and the session waits in scoring
// with a deadline, so an interrupted finish is picked up by the sweep.
// outcome is set when the result is already decided.
func (c *Controller) enterScoring(ctx context.Context, s *model.Session, reason model.EndReason, outcome *model.Outcome) error {
	from := s.Phase
	s.Phase = model.PhaseScoring
	s.PendingEnd = reason
	s.Outcome = outcome
	s.PhaseDeadline = c.clock.Now().Add(c.cfg.DeadlineInterval)
	if err := c.save(ctx, s, s.Version); err != nil {
		return err
	}
	c.syncDeadline(ctx, s)

	if err := c.clocks.Stop(ctx, s.ID); err != nil {
		c.logger.Warn("failed to stop clock",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()))
	}
	if from != model.PhaseScoring {
		c.publish(ctx, s.ID, model.Event{
			Type:    model.EventPhaseChanged,
			Payload: model.PhaseChangedPayload{From: from, To: model.PhaseScoring, Players: copyPlayers(s.Players)},
		})
	}
	return nil
}

// pendingEnding resumes the finish of a session parked in scoring
func pendingEnding(s *model.Session) *ending {
	return &ending{reason: s.PendingEnd, outcome: s.Outcome}
}

func (c *Controller) recordFor(s *model.Session) *model.GameRecord {
	rated := s.Config.Rated && s.Outcome.Reason != model.EndAbandoned
	for _, id := range s.Players {
		if id.IsAI() {
			rated = false
		}
	}
	return &model.GameRecord{
		SessionID:  s.ID,
		Mode:       s.Mode,
		Black:      s.Players[model.Black],
		White:      s.Players[model.White],
		Winner:     s.Outcome.Winner,
		Reason:     s.Outcome.Reason,
		Score:      s.Outcome.Score,
		Moves:      len(s.Moves),
		SGF:        rules.EncodeSGF(s),
		Rated:      rated,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}

// updatePlayers adds the result to both players' tallies and, for rated
// games, moves their ratings
func (c *Controller) updatePlayers(ctx context.Context, s *model.Session, rated bool) {
	if !rated {
		return
	}
	black, err := c.records.GetPlayer(ctx, s.Players[model.Black])
	if err != nil {
		c.logger.Warn("rating skipped", slog.String("session_id", string(s.ID)), slog.String("error", err.Error()))
		return
	}
	white, err := c.records.GetPlayer(ctx, s.Players[model.White])
	if err != nil {
		c.logger.Warn("rating skipped", slog.String("session_id", string(s.ID)), slog.String("error", err.Error()))
		return
	}

	var score float64
	switch s.Outcome.Winner {
	case model.Black:
		score = 1
		black.Wins++
		white.Losses++
	case model.White:
		white.Wins++
		black.Losses++
	default:
		score = 0.5
		black.Draws++
		white.Draws++
	}
	black.Rating, white.Rating = Elo(black.Rating, white.Rating, score, c.cfg.KFactor)

	now := c.clock.Now()
	for _, p := range []*model.Player{black, white} {
		p.UpdatedAt = now
		if err := c.records.SavePlayer(ctx, p); err != nil {
			c.logger.Error("failed to save player",
				slog.String("player_id", string(p.ID)),
				slog.String("error", err.Error()))
		}
	}
}

// Elo returns the new ratings of a and b after a game in which a scored
// scoreA (1 win, 0.5 draw, 0 loss)
func Elo(a, b int, scoreA, k float64) (int, int) {
	expectedA := 1 / (1 + math.Pow(10, float64(b-a)/400))
	delta := k * (scoreA - expectedA)
	return a + int(math.Round(delta)), b - int(math.Round(delta))
}
