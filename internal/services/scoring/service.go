package scoring

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/services/analysis"
)

// Strategy scores a finished position
type Strategy interface {
	Name() string
	Score(ctx context.Context, s *model.Session, reason model.EndReason) (*model.Outcome, error)
}

// Service scores sessions through an ordered list of strategies, falling
// back to the local estimate when every strategy fails
type Service struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

// NewService creates a scoring service. Each strategy gets timeout to answer.
func NewService(strategies []Strategy, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		strategies: strategies,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "scoring")),
	}
}

// Score returns the outcome of a session that stopped with reason. Modes
// that decide the winner themselves are never sent to a strategy.
func (s *Service) Score(ctx context.Context, sess *model.Session, reason model.EndReason) *model.Outcome {
	out := FinalOutcome(sess, reason)
	if out.Source != SourceLocal {
		return out
	}

	for _, strategy := range s.strategies {
		remote, err := s.try(ctx, strategy, sess, reason)
		if err == nil {
			return remote
		}
		s.logger.Warn("scoring strategy failed",
			slog.String("strategy", strategy.Name()),
			slog.String("session_id", string(sess.ID)),
			slog.String("error", err.Error()))
	}
	return out
}

func (s *Service) try(ctx context.Context, strategy Strategy, sess *model.Session, reason model.EndReason) (*model.Outcome, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := strategy.Score(ctx, sess.Clone(), reason)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, model.ErrCollaboratorTimeout
	}
	return out, err
}

// RemoteStrategy scores with an analysis engine
type RemoteStrategy struct {
	client *analysis.Client
}

// NewRemoteStrategy creates a strategy backed by client
func NewRemoteStrategy(client *analysis.Client) *RemoteStrategy {
	return &RemoteStrategy{client: client}
}

func (r *RemoteStrategy) Name() string { return "remote" }

// Score asks the engine for Black's lead in the final position
func (r *RemoteStrategy) Score(ctx context.Context, s *model.Session, reason model.EndReason) (*model.Outcome, error) {
	resp, err := r.client.Analyze(ctx, analysis.NewQuery(s, model.Black))
	if err != nil {
		return nil, err
	}

	lead := resp.RootInfo.ScoreLead
	out := &model.Outcome{Reason: reason, Source: r.Name()}
	switch {
	case lead > 0:
		out.Winner = model.Black
		out.Margin = lead
	case lead < 0:
		out.Winner = model.White
		out.Margin = -lead
	}
	return out, nil
}
