package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/mocks"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/rules"
	"github.com/BlueStarAcademy/sudampvp/internal/services/analysis"
	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

func activeSession(mode model.Mode, size int) *model.Session {
	cfg := model.DefaultSessionConfig(mode)
	cfg.BoardSize = size
	s := &model.Session{
		ID:      "s-1",
		Mode:    mode,
		Phase:   model.PhaseActive,
		Config:  cfg,
		Board:   model.NewBoard(size),
		Players: map[model.Color]model.PlayerID{model.Black: "alice", model.White: "ai-bot"},
	}
	rules.Prepare(s)
	return s
}

type failingSuggester struct {
	calls int
}

func (f *failingSuggester) Name() string { return "failing" }

func (f *failingSuggester) Suggest(ctx context.Context, s *model.Session, color model.Color) (model.Action, error) {
	f.calls++
	return model.Action{}, errors.New("unavailable")
}

type slowSuggester struct{}

func (slowSuggester) Name() string { return "slow" }

func (slowSuggester) Suggest(ctx context.Context, s *model.Session, color model.Color) (model.Action, error) {
	<-ctx.Done()
	return model.Action{}, ctx.Err()
}

type ServiceSuite struct {
	suite.Suite
	random *mocks.MockRandom
	engine *rules.Engine
	local  *LocalSuggester
	ctx    context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.engine = rules.NewEngine(s.random)
	s.local = NewLocalSuggester(s.engine, s.random)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestLocalPicksLegalPlacement() {
	sess := activeSession(model.ModeStandard, 5)
	s.random.QueueIntn(3)

	action, err := s.local.Suggest(s.ctx, sess, model.Black)
	s.Require().NoError(err)
	s.Equal(model.ActionPlace, action.Kind)
	s.Equal(model.Point{Row: 0, Col: 3}, action.Point)
	s.True(s.engine.IsLegal(sess, model.Black, action.Point))
}

func (s *ServiceSuite) TestLocalPassesOnFullBoard() {
	sess := activeSession(model.ModeOmok, 3)
	for _, p := range sess.Board.EmptyPoints() {
		sess.Board.Set(p, model.White)
	}

	action, err := s.local.Suggest(s.ctx, sess, model.Black)
	s.Require().NoError(err)
	s.Equal(model.ActionPass, action.Kind)
}

func (s *ServiceSuite) TestLocalRollsInDiceMode() {
	sess := activeSession(model.ModeDice, 9)

	action, err := s.local.Suggest(s.ctx, sess, model.Black)
	s.Require().NoError(err)
	s.Equal(model.ActionRoll, action.Kind)
}

func (s *ServiceSuite) TestLocalTossesInCurlingMode() {
	sess := activeSession(model.ModeCurling, 9)
	s.random.QueueIntn(4, 5)

	action, err := s.local.Suggest(s.ctx, sess, model.White)
	s.Require().NoError(err)
	s.Equal(model.ActionToss, action.Kind)
	s.Equal(4, action.Point.Col)
	s.Equal(6, action.Power)
}

type recordingSuggester struct {
	seen *model.Session
}

func (r *recordingSuggester) Name() string { return "recording" }

func (r *recordingSuggester) Suggest(ctx context.Context, s *model.Session, color model.Color) (model.Action, error) {
	r.seen = s
	return model.Action{}, errors.New("unavailable")
}

func (s *ServiceSuite) TestSuggestersNeverSeeOpponentHiddenStones() {
	sess := activeSession(model.ModeHidden, 3)
	for _, p := range sess.Board.EmptyPoints() {
		if p == (model.Point{Row: 0, Col: 0}) {
			continue
		}
		sess.Board.Set(p, model.White)
		sess.Variant.Hidden = append(sess.Variant.Hidden, p)
	}
	recording := &recordingSuggester{}
	svc := NewService([]Suggester{recording}, s.local, time.Second, testutil.NopLogger())
	s.random.QueueIntn(8)

	action := svc.Suggest(s.ctx, sess, model.Black)

	s.Require().NotNil(recording.seen)
	s.Equal(0, recording.seen.Board.Count(model.White))
	s.Empty(recording.seen.Variant.Hidden)
	// The local generator plays as if the board were empty
	s.Equal(model.ActionPlace, action.Kind)
	s.Equal(model.Point{Row: 2, Col: 2}, action.Point)
	s.Equal(8, sess.Board.Count(model.White))
}

func (s *ServiceSuite) TestChainFallsBackToLocal() {
	failing := &failingSuggester{}
	svc := NewService([]Suggester{failing, slowSuggester{}}, s.local, 10*time.Millisecond, testutil.NopLogger())

	action := svc.Suggest(s.ctx, activeSession(model.ModeStandard, 5), model.White)
	s.Equal(1, failing.calls)
	s.Equal(model.ActionPlace, action.Kind)
}

func (s *ServiceSuite) TestRemoteSuggestion() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q analysis.Query
		_ = json.NewDecoder(r.Body).Decode(&q)
		s.Equal("W", q.InitialPlayer)
		_ = json.NewEncoder(w).Encode(analysis.Response{MoveInfos: []analysis.MoveInfo{{Move: "C3", Order: 0}}})
	}))
	defer srv.Close()

	remote := NewRemoteSuggester(analysis.NewClient(srv.URL, time.Second), s.engine)
	svc := NewService([]Suggester{remote}, s.local, time.Second, testutil.NopLogger())

	action := svc.Suggest(s.ctx, activeSession(model.ModeStandard, 5), model.White)
	s.Equal(model.ActionPlace, action.Kind)
	s.Equal(model.Point{Row: 2, Col: 2}, action.Point)
}

func (s *ServiceSuite) TestRemoteIllegalMoveIsRejected() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(analysis.Response{MoveInfos: []analysis.MoveInfo{{Move: "A5", Order: 0}}})
	}))
	defer srv.Close()

	sess := activeSession(model.ModeStandard, 5)
	sess.Board.Set(model.Point{Row: 0, Col: 0}, model.Black)

	remote := NewRemoteSuggester(analysis.NewClient(srv.URL, time.Second), s.engine)
	_, err := remote.Suggest(s.ctx, sess, model.White)
	s.ErrorContains(err, "illegal")
}

func (s *ServiceSuite) TestRemoteSkipsDiceMode() {
	remote := NewRemoteSuggester(analysis.NewClient("http://127.0.0.1:1", time.Second), s.engine)
	_, err := remote.Suggest(s.ctx, activeSession(model.ModeDice, 9), model.Black)
	s.Error(err)
}
