package session

import (
	"context"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// ApplyMove places a stone
func (c *Controller) ApplyMove(ctx context.Context, id model.SessionID, player model.PlayerID, p model.Point) (*model.Session, error) {
	return c.Act(ctx, id, player, model.Action{Kind: model.ActionPlace, Point: p})
}

// Pass gives up the turn. Two consecutive passes end play.
func (c *Controller) Pass(ctx context.Context, id model.SessionID, player model.PlayerID) (*model.Session, error) {
	return c.Act(ctx, id, player, model.Action{Kind: model.ActionPass})
}

// PlaceHidden places a stone the opponent cannot see
func (c *Controller) PlaceHidden(ctx context.Context, id model.SessionID, player model.PlayerID, p model.Point) (*model.Session, error) {
	return c.Act(ctx, id, player, model.Action{Kind: model.ActionHidden, Point: p})
}

// Slide fires one of the player's stones in a direction
func (c *Controller) Slide(ctx context.Context, id model.SessionID, player model.PlayerID, from model.Point, dir model.Direction) (*model.Session, error) {
	return c.Act(ctx, id, player, model.Action{Kind: model.ActionSlide, Point: from, Direction: dir})
}

// Scan looks for a hidden stone at p
func (c *Controller) Scan(ctx context.Context, id model.SessionID, player model.PlayerID, p model.Point) (*model.Session, error) {
	return c.Act(ctx, id, player, model.Action{Kind: model.ActionScan, Point: p})
}

// RollDice rolls for the number of stones to place
func (c *Controller) RollDice(ctx context.Context, id model.SessionID, player model.PlayerID) (*model.Session, error) {
	return c.Act(ctx, id, player, model.Action{Kind: model.ActionRoll})
}

// Toss throws a curling stone down col with the given power
func (c *Controller) Toss(ctx context.Context, id model.SessionID, player model.PlayerID, col, power int) (*model.Session, error) {
	return c.Act(ctx, id, player, model.Action{Kind: model.ActionToss, Point: model.Point{Col: col}, Power: power})
}

// Act runs an action through the move pipeline: the turn holder is taken
// from the clock, the rule engine validates and applies the action, the
// result is stored and only then is the clock handed over.
func (c *Controller) Act(ctx context.Context, id model.SessionID, player model.PlayerID, action model.Action) (*model.Session, error) {
	return c.run(ctx, id, func(s *model.Session, fx *effects) error {
		color, err := participant(s, player)
		if err != nil {
			return err
		}
		if s.Phase != model.PhaseActive {
			return model.Invalid(model.ErrPhaseNotActive)
		}

		clk, err := c.clocks.Snapshot(ctx, id)
		if err != nil {
			return err
		}
		if clk.Expired != model.Empty {
			fx.end = &ending{outcome: timeoutOutcome(clk.Expired)}
			fx.err = model.ErrSessionFinished
			return nil
		}

		res, err := c.engine.Apply(s, clk.Turn, color, action, fx.now)
		if err != nil {
			return err
		}

		next := color.Opponent()
		if res.MaintainTurn {
			next = color
		}
		fx.emit(model.EventMoveApplied, player, model.MoveAppliedPayload{
			Move:     publicMove(s, res.Move),
			Captured: copyCaptured(s.Captured),
			NextTurn: next,
		})
		emitReveals(s, fx, color, res.Revealed)

		switch {
		case res.Outcome != nil:
			fx.end = &ending{outcome: res.Outcome}
		case res.EndReason != "":
			fx.end = &ending{reason: res.EndReason}
		default:
			fx.clock = &clockStep{mover: color, pause: res.Pause, switchTurn: !res.MaintainTurn}
			fx.next = next
		}
		return nil
	})
}

// publicMove hides the point of a hidden placement that is still unseen
func publicMove(s *model.Session, m model.Move) model.Move {
	if m.Kind == model.ActionHidden && !m.Blocked && s.Variant.IsHidden(m.Point) {
		m.Point = model.Point{Row: -1, Col: -1}
	}
	return m
}

// emitReveals announces revealed stones grouped by owner. Revealed stones
// that are no longer on the board were captured from the mover's opponent.
func emitReveals(s *model.Session, fx *effects, mover model.Color, revealed []model.Point) {
	if len(revealed) == 0 {
		return
	}
	byOwner := make(map[model.Color][]model.Point)
	for _, p := range revealed {
		owner := s.Board.Get(p)
		if owner == model.Empty {
			owner = mover.Opponent()
		}
		byOwner[owner] = append(byOwner[owner], p)
	}
	for _, owner := range []model.Color{model.Black, model.White} {
		if points := byOwner[owner]; len(points) > 0 {
			fx.emit(model.EventStoneRevealed, "", model.StoneRevealedPayload{Points: points, Owner: owner})
		}
	}
}

func copyCaptured(m map[model.Color]int) map[model.Color]int {
	out := make(map[model.Color]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func timeoutOutcome(loser model.Color) *model.Outcome {
	return &model.Outcome{Winner: loser.Opponent(), Reason: model.EndTimeout}
}
