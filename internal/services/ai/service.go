package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// Service asks an ordered list of suggesters for a move, each within the
// timeout, and falls back to the local generator
type Service struct {
	suggesters []Suggester
	fallback   *LocalSuggester
	timeout    time.Duration
	logger     *slog.Logger
}

// NewService creates an AI service. fallback is always consulted last.
func NewService(suggesters []Suggester, fallback *LocalSuggester, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		suggesters: suggesters,
		fallback:   fallback,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "ai")),
	}
}

// Suggest returns the action color should play in s. Suggesters only see
// what a human in color's seat would see.
func (s *Service) Suggest(ctx context.Context, sess *model.Session, color model.Color) model.Action {
	view := sess.ViewFor(color)
	for _, suggester := range s.suggesters {
		action, err := s.try(ctx, suggester, view, color)
		if err == nil {
			return action
		}
		s.logger.Warn("suggester failed",
			slog.String("suggester", suggester.Name()),
			slog.String("session_id", string(sess.ID)),
			slog.String("error", err.Error()))
	}

	action, _ := s.fallback.Suggest(ctx, view.Clone(), color)
	return action
}

func (s *Service) try(ctx context.Context, suggester Suggester, sess *model.Session, color model.Color) (model.Action, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	action, err := suggester.Suggest(ctx, sess.Clone(), color)
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Action{}, model.ErrCollaboratorTimeout
	}
	return action, err
}
