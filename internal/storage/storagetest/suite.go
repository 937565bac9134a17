// Package storagetest holds behaviour suites shared by every storage backend.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// StorageSuite exercises a storage.Storage. Backends embed it and set Store
// in their own SetupTest.
type StorageSuite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

func newSession(id model.SessionID) *model.Session {
	board := model.NewBoard(9)
	board.Set(model.Point{Row: 4, Col: 4}, model.Black)
	return &model.Session{
		ID:      id,
		Mode:    model.ModeStandard,
		Phase:   model.PhaseActive,
		Config:  model.DefaultSessionConfig(model.ModeStandard),
		Players: map[model.Color]model.PlayerID{model.Black: "alice", model.White: "bob"},
		Board:   board,
		Captured: map[model.Color]int{
			model.Black: 1,
		},
		Positions: []string{"aa", "bb"},
		Version:   1,
		CreatedAt: baseTime,
	}
}

func (s *StorageSuite) TestSessionCreateAndGet() {
	sess := newSession("s-1")
	s.Require().NoError(s.Store.CompareAndSwapSession(s.Ctx, sess, 0))

	got, err := s.Store.GetSession(s.Ctx, "s-1")
	s.Require().NoError(err)
	s.Equal(sess.Players, got.Players)
	s.Equal(model.Black, got.Board.Get(model.Point{Row: 4, Col: 4}))
	s.Equal(1, got.Captured[model.Black])
	s.Equal(int64(1), got.Version)
}

func (s *StorageSuite) TestSessionNotFound() {
	_, err := s.Store.GetSession(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionCreateTwiceConflicts() {
	sess := newSession("s-1")
	s.Require().NoError(s.Store.CompareAndSwapSession(s.Ctx, sess, 0))
	s.ErrorIs(s.Store.CompareAndSwapSession(s.Ctx, sess, 0), model.ErrConcurrentUpdate)
}

func (s *StorageSuite) TestSessionCompareAndSwap() {
	sess := newSession("s-1")
	s.Require().NoError(s.Store.CompareAndSwapSession(s.Ctx, sess, 0))

	sess.Version = 2
	sess.Phase = model.PhaseScoring
	s.Require().NoError(s.Store.CompareAndSwapSession(s.Ctx, sess, 1))

	stale := newSession("s-1")
	stale.Version = 2
	s.ErrorIs(s.Store.CompareAndSwapSession(s.Ctx, stale, 1), model.ErrConcurrentUpdate)

	got, err := s.Store.GetSession(s.Ctx, "s-1")
	s.Require().NoError(err)
	s.Equal(model.PhaseScoring, got.Phase)
	s.Equal(int64(2), got.Version)
}

func (s *StorageSuite) TestSessionUpdateMissingFails() {
	sess := newSession("s-1")
	s.ErrorIs(s.Store.CompareAndSwapSession(s.Ctx, sess, 3), model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionIsolatedFromCaller() {
	sess := newSession("s-1")
	s.Require().NoError(s.Store.CompareAndSwapSession(s.Ctx, sess, 0))
	sess.Board.Set(model.Point{Row: 0, Col: 0}, model.White)

	got, err := s.Store.GetSession(s.Ctx, "s-1")
	s.Require().NoError(err)
	s.Equal(model.Empty, got.Board.Get(model.Point{Row: 0, Col: 0}))
}

func (s *StorageSuite) TestDeleteSession() {
	s.Require().NoError(s.Store.CompareAndSwapSession(s.Ctx, newSession("s-1"), 0))
	s.Require().NoError(s.Store.DeleteSession(s.Ctx, "s-1"))

	_, err := s.Store.GetSession(s.Ctx, "s-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeadlines() {
	s.Require().NoError(s.Store.SetDeadline(s.Ctx, "early", baseTime))
	s.Require().NoError(s.Store.SetDeadline(s.Ctx, "late", baseTime.Add(time.Minute)))

	due, err := s.Store.DueDeadlines(s.Ctx, baseTime.Add(time.Second))
	s.Require().NoError(err)
	s.Equal([]model.SessionID{"early"}, due)

	s.Require().NoError(s.Store.ClearDeadline(s.Ctx, "early"))
	due, err = s.Store.DueDeadlines(s.Ctx, baseTime.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal([]model.SessionID{"late"}, due)
}

func (s *StorageSuite) TestClockCompareAndSwap() {
	c := &model.Clock{
		SessionID:  "s-1",
		Config:     model.DefaultClockConfig(),
		Turn:       model.Black,
		Black:      model.PlayerClock{MainLeft: time.Minute},
		White:      model.PlayerClock{MainLeft: time.Minute},
		LastUpdate: baseTime,
		Version:    1,
	}
	s.Require().NoError(s.Store.CompareAndSwapClock(s.Ctx, c, 0))

	got, err := s.Store.GetClock(s.Ctx, "s-1")
	s.Require().NoError(err)
	s.Equal(time.Minute, got.Black.MainLeft)
	s.True(got.LastUpdate.Equal(baseTime))

	got.Version = 2
	got.Black.MainLeft = 30 * time.Second
	s.Require().NoError(s.Store.CompareAndSwapClock(s.Ctx, got, 1))
	s.ErrorIs(s.Store.CompareAndSwapClock(s.Ctx, got, 1), model.ErrConcurrentUpdate)

	s.Require().NoError(s.Store.DeleteClock(s.Ctx, "s-1"))
	_, err = s.Store.GetClock(s.Ctx, "s-1")
	s.ErrorIs(err, model.ErrClockNotFound)
}

func (s *StorageSuite) TestRunningClocks() {
	s.Require().NoError(s.Store.AddRunningClock(s.Ctx, "b"))
	s.Require().NoError(s.Store.AddRunningClock(s.Ctx, "a"))
	s.Require().NoError(s.Store.AddRunningClock(s.Ctx, "a"))

	ids, err := s.Store.ListRunningClocks(s.Ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.SessionID{"a", "b"}, ids)

	s.Require().NoError(s.Store.RemoveRunningClock(s.Ctx, "a"))
	ids, err = s.Store.ListRunningClocks(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]model.SessionID{"b"}, ids)
}

func (s *StorageSuite) TestQueueOrderedByRating() {
	for _, c := range []model.Candidate{
		{PlayerID: "high", Rating: 1800, Mode: model.ModeStandard, EnqueuedAt: baseTime},
		{PlayerID: "low", Rating: 1200, Mode: model.ModeStandard, EnqueuedAt: baseTime},
		{PlayerID: "mid", Rating: 1500, Mode: model.ModeStandard, EnqueuedAt: baseTime},
		{PlayerID: "other", Rating: 1500, Mode: model.ModeCapture, EnqueuedAt: baseTime},
	} {
		s.Require().NoError(s.Store.Enqueue(s.Ctx, c))
	}

	queue, err := s.Store.ListQueue(s.Ctx, model.ModeStandard)
	s.Require().NoError(err)
	s.Require().Len(queue, 3)
	s.Equal(model.PlayerID("low"), queue[0].PlayerID)
	s.Equal(model.PlayerID("mid"), queue[1].PlayerID)
	s.Equal(model.PlayerID("high"), queue[2].PlayerID)
	s.True(queue[0].EnqueuedAt.Equal(baseTime))
}

func (s *StorageSuite) TestQueueDuplicateAndDequeue() {
	c := model.Candidate{PlayerID: "alice", Rating: 1500, Mode: model.ModeStandard, EnqueuedAt: baseTime}
	s.Require().NoError(s.Store.Enqueue(s.Ctx, c))
	s.ErrorIs(s.Store.Enqueue(s.Ctx, c), model.ErrAlreadyQueued)

	s.Require().NoError(s.Store.Dequeue(s.Ctx, model.ModeStandard, "alice"))
	s.ErrorIs(s.Store.Dequeue(s.Ctx, model.ModeStandard, "alice"), model.ErrNotQueued)

	queue, err := s.Store.ListQueue(s.Ctx, model.ModeStandard)
	s.Require().NoError(err)
	s.Empty(queue)
}

func (s *StorageSuite) TestPresence() {
	status, err := s.Store.GetPresence(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PresenceEligible, status)

	s.Require().NoError(s.Store.SetPresence(s.Ctx, "alice", model.PresenceInGame))
	status, err = s.Store.GetPresence(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PresenceInGame, status)
}

// RecordsSuite exercises a storage.Records implementation
type RecordsSuite struct {
	suite.Suite
	Records storage.Records
	Ctx     context.Context
}

func newPlayer(id model.PlayerID, tickets int) *model.Player {
	return &model.Player{
		ID:          id,
		DisplayName: string(id),
		Rating:      model.DefaultRating,
		Tickets:     map[model.Mode]int{model.ModeStandard: tickets},
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

func (s *RecordsSuite) TestSaveAndGetPlayer() {
	p := newPlayer("alice", 2)
	p.Wins = 3
	s.Require().NoError(s.Records.SavePlayer(s.Ctx, p))

	got, err := s.Records.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.DisplayName)
	s.Equal(model.DefaultRating, got.Rating)
	s.Equal(2, got.Tickets[model.ModeStandard])
	s.Equal(3, got.Wins)
}

func (s *RecordsSuite) TestPlayerNotFound() {
	_, err := s.Records.GetPlayer(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *RecordsSuite) TestSavePlayerOverwrites() {
	p := newPlayer("alice", 1)
	s.Require().NoError(s.Records.SavePlayer(s.Ctx, p))
	p.Rating = 1516
	p.Tickets[model.ModeCapture] = 4
	s.Require().NoError(s.Records.SavePlayer(s.Ctx, p))

	got, err := s.Records.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1516, got.Rating)
	s.Equal(4, got.Tickets[model.ModeCapture])
}

func (s *RecordsSuite) TestConsumeAndRefundTicket() {
	s.Require().NoError(s.Records.SavePlayer(s.Ctx, newPlayer("alice", 1)))

	s.Require().NoError(s.Records.ConsumeTicket(s.Ctx, "alice", model.ModeStandard))
	s.ErrorIs(s.Records.ConsumeTicket(s.Ctx, "alice", model.ModeStandard), model.ErrNoTicket)
	s.ErrorIs(s.Records.ConsumeTicket(s.Ctx, "alice", model.ModeCapture), model.ErrNoTicket)

	s.Require().NoError(s.Records.RefundTicket(s.Ctx, "alice", model.ModeStandard))
	got, err := s.Records.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, got.Tickets[model.ModeStandard])

	s.ErrorIs(s.Records.ConsumeTicket(s.Ctx, "ghost", model.ModeStandard), model.ErrPlayerNotFound)
}

func (s *RecordsSuite) TestGameRecords() {
	for i, id := range []model.SessionID{"g-1", "g-2", "g-3"} {
		rec := &model.GameRecord{
			SessionID:  id,
			Mode:       model.ModeStandard,
			Black:      "alice",
			White:      "bob",
			Winner:     model.Black,
			Reason:     model.EndDoublePass,
			Score:      map[model.Color]float64{model.Black: 40, model.White: 35.5},
			Moves:      10 + i,
			SGF:        "(;GM[1])",
			Rated:      true,
			StartedAt:  baseTime,
			FinishedAt: baseTime.Add(time.Duration(i) * time.Hour),
		}
		s.Require().NoError(s.Records.SaveGameRecord(s.Ctx, rec))
	}
	s.Require().NoError(s.Records.SaveGameRecord(s.Ctx, &model.GameRecord{
		SessionID: "g-other", Mode: model.ModeCapture, Black: "carol", White: "dave", FinishedAt: baseTime,
	}))

	got, err := s.Records.GetGameRecord(s.Ctx, "g-2")
	s.Require().NoError(err)
	s.Equal(model.Black, got.Winner)
	s.Equal(35.5, got.Score[model.White])
	s.Equal("(;GM[1])", got.SGF)

	list, err := s.Records.ListGameRecords(s.Ctx, "bob", 2)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(model.SessionID("g-3"), list[0].SessionID)
	s.Equal(model.SessionID("g-2"), list[1].SessionID)

	_, err = s.Records.GetGameRecord(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrRecordNotFound)
}
