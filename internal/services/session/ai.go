package session

import (
	"context"
	"log/slog"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// scheduleAI plays the AI's move in the background
func (c *Controller) scheduleAI(id model.SessionID) {
	c.aiWG.Add(1)
	go func() {
		defer c.aiWG.Done()
		c.playAI(id)
	}()
}

func (c *Controller) playAI(id model.SessionID) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.AIMoveTimeout)
	defer cancel()

	s, err := c.storage.GetSession(ctx, id)
	if err != nil || s.Phase != model.PhaseActive {
		return
	}
	clk, err := c.clocks.Snapshot(ctx, id)
	if err != nil {
		c.logger.Warn("ai move skipped", slog.String("session_id", string(id)), slog.String("error", err.Error()))
		return
	}
	player := s.Players[clk.Turn]
	if !player.IsAI() {
		return
	}

	action := c.suggester.Suggest(ctx, s, clk.Turn)
	_, err = c.Act(ctx, id, player, action)
	if err == nil || !model.IsValidation(err) {
		if err != nil {
			c.logger.Warn("ai move failed",
				slog.String("session_id", string(id)),
				slog.String("error", err.Error()))
		}
		return
	}

	c.logger.Warn("ai move rejected, passing",
		slog.String("session_id", string(id)),
		slog.String("action", string(action.Kind)),
		slog.String("error", err.Error()))
	if _, err := c.Act(ctx, id, player, model.Action{Kind: model.ActionPass}); err != nil {
		c.logger.Warn("ai pass failed",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()))
	}
}
