package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/rules"
)

// begin moves a new session into the negotiation its mode needs
func (c *Controller) begin(s *model.Session, fx *effects) {
	switch s.Mode {
	case model.ModeCapture:
		c.enterBidding(s, fx)
	case model.ModeBase:
		s.Variant.BasePlacements = make(map[model.PlayerID][]model.Point)
		c.setPhase(s, fx, model.PhasePreGame, model.PreGamePlacement, s.Config.PreGameTimeout)
		c.autoSubmit(s, fx)
	default:
		c.enterReadyWait(s, fx)
	}
}

func (c *Controller) setPhase(s *model.Session, fx *effects, phase model.Phase, kind model.PreGameKind, timeout time.Duration) {
	from := s.Phase
	s.Phase = phase
	s.PreGame = kind
	s.PhaseDeadline = time.Time{}
	if timeout > 0 {
		s.PhaseDeadline = fx.now.Add(timeout)
	}
	fx.deadline = true
	fx.emit(model.EventPhaseChanged, "", model.PhaseChangedPayload{
		From:    from,
		To:      phase,
		PreGame: kind,
		Players: copyPlayers(s.Players),
	})
}

func (c *Controller) enterBidding(s *model.Session, fx *effects) {
	s.Variant.BidRound = 1
	s.Variant.Bids = make(map[model.PlayerID]int)
	c.setPhase(s, fx, model.PhasePreGame, model.PreGameSealedBid, s.Config.PreGameTimeout)
	c.autoSubmit(s, fx)
}

func (c *Controller) enterReadyWait(s *model.Session, fx *effects) {
	s.Ready = map[model.Color]bool{model.Black: false, model.White: false}
	c.setPhase(s, fx, model.PhaseReadyWait, model.PreGameNone, s.Config.ReadyTimeout)
	c.autoSubmit(s, fx)
}

func (c *Controller) startPlay(s *model.Session, fx *effects) {
	rules.Prepare(s)
	s.StartedAt = fx.now
	c.setPhase(s, fx, model.PhaseActive, model.PreGameNone, 0)
	fx.start = true
	fx.next = model.Black
}

// autoSubmit answers the current negotiation step for AI participants
func (c *Controller) autoSubmit(s *model.Session, fx *effects) {
	submitted := false
	for _, color := range []model.Color{model.Black, model.White} {
		id := s.Players[color]
		if !id.IsAI() {
			continue
		}
		switch {
		case s.Phase == model.PhaseReadyWait && !s.Ready[color]:
			s.Ready[color] = true
			fx.emit(model.EventPlayerReady, id, model.PlayerReadyPayload{Color: color})
		case s.Phase != model.PhasePreGame:
			continue
		case s.PreGame == model.PreGameSealedBid:
			if _, ok := s.Variant.Bids[id]; ok {
				continue
			}
			s.Variant.Bids[id] = 0
		case s.PreGame == model.PreGameColorPick:
			if _, ok := s.Variant.ColorPicks[id]; ok {
				continue
			}
			s.Variant.ColorPicks[id] = c.randomColor()
		case s.PreGame == model.PreGamePlacement:
			if _, ok := s.Variant.BasePlacements[id]; ok {
				continue
			}
			s.Variant.BasePlacements[id] = nil
		default:
			continue
		}
		submitted = true
	}
	if submitted {
		c.resolve(s, fx, false)
	}
}

// resolve completes the current negotiation step once both sides have
// answered. With force set, missing answers are filled with defaults.
func (c *Controller) resolve(s *model.Session, fx *effects, force bool) {
	switch s.Phase {
	case model.PhaseReadyWait:
		if force || (s.Ready[model.Black] && s.Ready[model.White]) {
			c.startPlay(s, fx)
		}
	case model.PhasePreGame:
		switch s.PreGame {
		case model.PreGameSealedBid:
			c.resolveBids(s, fx, force)
		case model.PreGamePlacement:
			c.resolvePlacements(s, fx, force)
		case model.PreGameColorPick:
			c.resolveColorPicks(s, fx, force)
		}
	}
}

func (c *Controller) resolveBids(s *model.Session, fx *effects, force bool) {
	black, white := s.Players[model.Black], s.Players[model.White]
	blackBid, okBlack := s.Variant.Bids[black]
	whiteBid, okWhite := s.Variant.Bids[white]
	if !force && !(okBlack && okWhite) {
		return
	}

	res := rules.ResolveBids(blackBid, whiteBid, s.Variant.BidRound, c.random)
	if !res.Decided {
		s.Variant.BidRound++
		s.Variant.Bids = make(map[model.PlayerID]int)
		s.PhaseDeadline = fx.now.Add(s.Config.PreGameTimeout)
		fx.deadline = true
		fx.emit(model.EventBidRound, "", model.BidRoundPayload{Round: s.Variant.BidRound, Tied: blackBid})
		c.autoSubmit(s, fx)
		return
	}

	winner, loser := black, white
	if !res.FirstWins {
		winner, loser = white, black
	}
	s.Variant.CoinFlip = res.CoinFlipped

	switch s.Mode {
	case model.ModeBase:
		contested := s.Variant.ColorPicks[winner]
		if contested == model.Black {
			assignColors(s, winner, loser)
			s.Config.Komi += float64(res.WinningBid)
		} else {
			assignColors(s, loser, winner)
			s.Config.Komi -= float64(res.WinningBid)
		}
		c.placeBaseStones(s)
	default:
		assignColors(s, winner, loser)
		s.Variant.Targets = rules.CaptureTargets(s.Config.CaptureTarget, res.WinningBid)
	}

	c.logger.Info("bidding resolved",
		slog.String("session_id", string(s.ID)),
		slog.String("winner", string(winner)),
		slog.Int("bid", res.WinningBid),
		slog.Bool("coin_flip", res.CoinFlipped))
	c.enterReadyWait(s, fx)
}

func (c *Controller) resolvePlacements(s *model.Session, fx *effects, force bool) {
	black, white := s.Players[model.Black], s.Players[model.White]
	first, okFirst := s.Variant.BasePlacements[black]
	second, okSecond := s.Variant.BasePlacements[white]
	if !force && !(okFirst && okSecond) {
		return
	}

	first, second = rules.ResolveBasePlacements(s.Config.BoardSize, s.Config.BaseStones, first, second, c.random)
	s.Variant.BasePlacements = map[model.PlayerID][]model.Point{black: first, white: second}
	s.Variant.ColorPicks = make(map[model.PlayerID]model.Color)
	c.setPhase(s, fx, model.PhasePreGame, model.PreGameColorPick, s.Config.PreGameTimeout)
	c.autoSubmit(s, fx)
}

func (c *Controller) resolveColorPicks(s *model.Session, fx *effects, force bool) {
	first, second := s.Players[model.Black], s.Players[model.White]
	firstPick, okFirst := s.Variant.ColorPicks[first]
	secondPick, okSecond := s.Variant.ColorPicks[second]
	if !force && !(okFirst && okSecond) {
		return
	}
	if !okFirst {
		firstPick = c.randomColor()
		s.Variant.ColorPicks[first] = firstPick
	}
	if !okSecond {
		secondPick = c.randomColor()
		s.Variant.ColorPicks[second] = secondPick
	}

	if firstPick == secondPick {
		// Both want the same color: bid komi for it
		c.enterBidding(s, fx)
		return
	}
	if firstPick == model.Black {
		assignColors(s, first, second)
	} else {
		assignColors(s, second, first)
	}
	c.placeBaseStones(s)
	c.enterReadyWait(s, fx)
}

func (c *Controller) placeBaseStones(s *model.Session) {
	rules.PlaceBaseStones(s,
		s.Variant.BasePlacements[s.Players[model.Black]],
		s.Variant.BasePlacements[s.Players[model.White]])
}

func (c *Controller) randomColor() model.Color {
	if !c.random.Coin() {
		return model.Black
	}
	return model.White
}

// assignColors seats black and white, carrying their connection state along
func assignColors(s *model.Session, black, white model.PlayerID) {
	connected := map[model.Color]bool{
		model.Black: s.Connected[s.ColorOf(black)],
		model.White: s.Connected[s.ColorOf(white)],
	}
	s.Players = map[model.Color]model.PlayerID{model.Black: black, model.White: white}
	s.Connected = connected
}

// SubmitBid records a sealed bid
func (c *Controller) SubmitBid(ctx context.Context, id model.SessionID, player model.PlayerID, amount int) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		if _, err := participant(s, player); err != nil {
			return err
		}
		if s.Phase != model.PhasePreGame || s.PreGame != model.PreGameSealedBid {
			return model.Invalid(model.ErrWrongPhase)
		}
		if amount < 0 || amount > s.Config.MaxBid {
			return model.Invalid(model.ErrInvalidBid)
		}
		if _, ok := s.Variant.Bids[player]; ok {
			return model.Invalid(model.ErrAlreadySubmitted)
		}
		if s.Variant.Bids == nil {
			s.Variant.Bids = make(map[model.PlayerID]int)
		}
		s.Variant.Bids[player] = amount
		c.resolve(s, fx, false)
		return nil
	})
}

// SubmitColorPick records the color a player wants to play
func (c *Controller) SubmitColorPick(ctx context.Context, id model.SessionID, player model.PlayerID, color model.Color) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		if _, err := participant(s, player); err != nil {
			return err
		}
		if s.Phase != model.PhasePreGame || s.PreGame != model.PreGameColorPick {
			return model.Invalid(model.ErrWrongPhase)
		}
		if !color.IsPlayer() {
			return model.Invalid(model.ErrInvalidColor)
		}
		if _, ok := s.Variant.ColorPicks[player]; ok {
			return model.Invalid(model.ErrAlreadySubmitted)
		}
		if s.Variant.ColorPicks == nil {
			s.Variant.ColorPicks = make(map[model.PlayerID]model.Color)
		}
		s.Variant.ColorPicks[player] = color
		c.resolve(s, fx, false)
		return nil
	})
}

// SubmitBasePlacement records where a player wants their base stones
func (c *Controller) SubmitBasePlacement(ctx context.Context, id model.SessionID, player model.PlayerID, points []model.Point) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		if _, err := participant(s, player); err != nil {
			return err
		}
		if s.Phase != model.PhasePreGame || s.PreGame != model.PreGamePlacement {
			return model.Invalid(model.ErrWrongPhase)
		}
		if err := rules.ValidateBasePlacement(s.Config.BoardSize, s.Config.BaseStones, points); err != nil {
			return model.Invalid(err)
		}
		if _, ok := s.Variant.BasePlacements[player]; ok {
			return model.Invalid(model.ErrAlreadySubmitted)
		}
		if s.Variant.BasePlacements == nil {
			s.Variant.BasePlacements = make(map[model.PlayerID][]model.Point)
		}
		s.Variant.BasePlacements[player] = append([]model.Point(nil), points...)
		c.resolve(s, fx, false)
		return nil
	})
}

// SetReady marks a player ready. Play starts once both are ready.
func (c *Controller) SetReady(ctx context.Context, id model.SessionID, player model.PlayerID) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		color, err := participant(s, player)
		if err != nil {
			return err
		}
		if s.Phase != model.PhaseReadyWait {
			return model.Invalid(model.ErrWrongPhase)
		}
		if s.Ready[color] {
			return errUnchanged
		}
		s.Ready[color] = true
		fx.emit(model.EventPlayerReady, player, model.PlayerReadyPayload{Color: color})
		c.resolve(s, fx, false)
		return nil
	})
}

// SweepDeadlines resolves every negotiation whose deadline has passed,
// filling in defaults for missing answers. It returns the number of
// sessions advanced.
func (c *Controller) SweepDeadlines(ctx context.Context) (int, error) {
	ids, err := c.storage.DueDeadlines(ctx, c.clock.Now())
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, id := range ids {
		_, err := c.run(ctx, id, func(s *model.Session, fx *effects) error {
			if s.PhaseDeadline.IsZero() {
				// Stale index entry
				fx.deadline = true
				return nil
			}
			if fx.now.Before(s.PhaseDeadline) {
				return errUnchanged
			}
			if s.Phase == model.PhaseScoring {
				c.logger.Info("resuming interrupted finish", slog.String("session_id", string(s.ID)))
				fx.end = pendingEnding(s)
				return nil
			}
			c.logger.Info("phase deadline passed",
				slog.String("session_id", string(s.ID)),
				slog.String("phase", string(s.Phase)),
				slog.String("pregame", string(s.PreGame)))
			c.resolve(s, fx, true)
			return nil
		})
		switch {
		case errors.Is(err, model.ErrSessionFinished), errors.Is(err, model.ErrSessionNotFound):
			if err := c.storage.ClearDeadline(ctx, id); err != nil {
				c.logger.Warn("failed to clear deadline",
					slog.String("session_id", string(id)),
					slog.String("error", err.Error()))
			}
		case err != nil:
			c.logger.Warn("failed to resolve deadline",
				slog.String("session_id", string(id)),
				slog.String("error", err.Error()))
		default:
			advanced++
		}
	}
	return advanced, nil
}

// RunDeadlines sweeps deadlines at the configured interval until ctx is cancelled
func (c *Controller) RunDeadlines(ctx context.Context) {
	ticker := c.clock.NewTicker(c.cfg.DeadlineInterval)
	defer ticker.Stop()

	c.logger.Info("deadline sweeper started", slog.Duration("interval", c.cfg.DeadlineInterval))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("deadline sweeper stopped")
			return
		case <-ticker.C():
			if _, err := c.SweepDeadlines(ctx); err != nil {
				c.logger.Warn("deadline sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
