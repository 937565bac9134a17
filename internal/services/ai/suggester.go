package ai

import (
	"context"
	"fmt"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/rules"
	"github.com/BlueStarAcademy/sudampvp/internal/services/analysis"
)

// Suggester proposes the next action for an AI participant
type Suggester interface {
	Name() string
	Suggest(ctx context.Context, s *model.Session, color model.Color) (model.Action, error)
}

// LocalSuggester picks a random legal action. It never fails.
type LocalSuggester struct {
	engine *rules.Engine
	random random.Random
}

// NewLocalSuggester creates a LocalSuggester
func NewLocalSuggester(engine *rules.Engine, rnd random.Random) *LocalSuggester {
	return &LocalSuggester{engine: engine, random: rnd}
}

func (l *LocalSuggester) Name() string { return "local" }

// Suggest returns a random legal placement, a roll or toss where the mode
// requires one, or a pass when nothing else is legal
func (l *LocalSuggester) Suggest(ctx context.Context, s *model.Session, color model.Color) (model.Action, error) {
	mod := rules.ModuleFor(s)

	if mod.Allows(s, model.ActionRoll) && !s.Variant.Rolled {
		return model.Action{Kind: model.ActionRoll}, nil
	}
	if mod.Allows(s, model.ActionToss) {
		if s.Variant.TossesLeft[color] <= 0 {
			return model.Action{Kind: model.ActionPass}, nil
		}
		return model.Action{
			Kind:  model.ActionToss,
			Point: model.Point{Col: l.random.Intn(s.Board.Size)},
			Power: 1 + l.random.Intn(s.Board.Size),
		}, nil
	}

	legal := l.engine.LegalPlacements(s, color)
	if len(legal) == 0 {
		return model.Action{Kind: model.ActionPass}, nil
	}
	return model.Action{Kind: model.ActionPlace, Point: legal[l.random.Intn(len(legal))]}, nil
}

// RemoteSuggester asks an analysis engine for its best move. Modes whose
// turns are not plain placements are left to the next suggester.
type RemoteSuggester struct {
	client *analysis.Client
	engine *rules.Engine
}

// NewRemoteSuggester creates a suggester backed by client
func NewRemoteSuggester(client *analysis.Client, engine *rules.Engine) *RemoteSuggester {
	return &RemoteSuggester{client: client, engine: engine}
}

func (r *RemoteSuggester) Name() string { return "remote" }

func (r *RemoteSuggester) Suggest(ctx context.Context, s *model.Session, color model.Color) (model.Action, error) {
	mod := rules.ModuleFor(s)
	if mod.Allows(s, model.ActionRoll) || mod.Allows(s, model.ActionToss) {
		return model.Action{}, fmt.Errorf("mode %s not supported remotely", s.Mode)
	}

	resp, err := r.client.Analyze(ctx, analysis.NewQuery(s, color))
	if err != nil {
		return model.Action{}, err
	}
	vertex, ok := resp.BestMove()
	if !ok {
		return model.Action{}, fmt.Errorf("engine returned no moves")
	}

	p, pass, err := analysis.ParseGTPPoint(vertex, s.Board.Size)
	if err != nil {
		return model.Action{}, err
	}
	if pass {
		return model.Action{Kind: model.ActionPass}, nil
	}
	if !r.engine.IsLegal(s, color, p) {
		return model.Action{}, fmt.Errorf("engine suggested illegal move %s", vertex)
	}
	return model.Action{Kind: model.ActionPlace, Point: p}, nil
}
