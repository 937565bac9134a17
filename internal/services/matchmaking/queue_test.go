package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/mocks"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/memory"
	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStarter struct {
	created []*model.Session
	err     error
}

func (f *fakeStarter) CreateSession(ctx context.Context, mode model.Mode, black, white model.PlayerID, cfg model.SessionConfig) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	sess := &model.Session{
		ID:      model.SessionID(fmt.Sprintf("s-%d", len(f.created)+1)),
		Mode:    mode,
		Players: map[model.Color]model.PlayerID{model.Black: black, model.White: white},
	}
	f.created = append(f.created, sess)
	return sess, nil
}

// downStorage fails every queue and presence call as an unreachable store would
type downStorage struct {
	*memory.Storage
}

var errDown = fmt.Errorf("%w: connection refused", model.ErrStoreUnavailable)

func (downStorage) Enqueue(ctx context.Context, c model.Candidate) error { return errDown }

func (downStorage) Dequeue(ctx context.Context, mode model.Mode, id model.PlayerID) error {
	return errDown
}

func (downStorage) ListQueue(ctx context.Context, mode model.Mode) ([]model.Candidate, error) {
	return nil, errDown
}

func (downStorage) GetPresence(ctx context.Context, id model.PlayerID) (model.PresenceStatus, error) {
	return "", errDown
}

func (downStorage) SetPresence(ctx context.Context, id model.PlayerID, status model.PresenceStatus) error {
	return errDown
}

// flakyStorage fails queue and presence calls while down is set
type flakyStorage struct {
	*memory.Storage
	down atomic.Bool
}

func (f *flakyStorage) Enqueue(ctx context.Context, c model.Candidate) error {
	if f.down.Load() {
		return errDown
	}
	return f.Storage.Enqueue(ctx, c)
}

func (f *flakyStorage) Dequeue(ctx context.Context, mode model.Mode, id model.PlayerID) error {
	if f.down.Load() {
		return errDown
	}
	return f.Storage.Dequeue(ctx, mode, id)
}

func (f *flakyStorage) ListQueue(ctx context.Context, mode model.Mode) ([]model.Candidate, error) {
	if f.down.Load() {
		return nil, errDown
	}
	return f.Storage.ListQueue(ctx, mode)
}

func (f *flakyStorage) GetPresence(ctx context.Context, id model.PlayerID) (model.PresenceStatus, error) {
	if f.down.Load() {
		return "", errDown
	}
	return f.Storage.GetPresence(ctx, id)
}

func (f *flakyStorage) SetPresence(ctx context.Context, id model.PlayerID, status model.PresenceStatus) error {
	if f.down.Load() {
		return errDown
	}
	return f.Storage.SetPresence(ctx, id, status)
}

type QueueSuite struct {
	suite.Suite
	storage   *memory.Storage
	records   *memory.Records
	starter   *fakeStarter
	clock     *mocks.MockClock
	random    *mocks.MockRandom
	publisher *mocks.MockPublisher
	queue     *Queue
	ctx       context.Context
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.storage = memory.New()
	s.records = memory.NewRecords()
	s.starter = &fakeStarter{}
	s.clock = mocks.NewMockClock(t0)
	s.random = mocks.NewMockRandom()
	s.publisher = mocks.NewMockPublisher()
	s.queue = NewQueue(s.storage, s.records, s.starter, s.publisher, s.clock, s.random, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *QueueSuite) player(id model.PlayerID, rating, tickets int) {
	s.Require().NoError(s.records.SavePlayer(s.ctx, &model.Player{
		ID:      id,
		Rating:  rating,
		Tickets: map[model.Mode]int{model.ModeStandard: tickets},
	}))
}

func (s *QueueSuite) enqueue(id model.PlayerID) {
	_, err := s.queue.Enqueue(s.ctx, id, model.ModeStandard)
	s.Require().NoError(err)
}

func (s *QueueSuite) tickets(id model.PlayerID) int {
	p, err := s.records.GetPlayer(s.ctx, id)
	s.Require().NoError(err)
	return p.Tickets[model.ModeStandard]
}

func (s *QueueSuite) queued() []model.PlayerID {
	candidates, err := s.queue.Candidates(s.ctx, model.ModeStandard)
	s.Require().NoError(err)
	var ids []model.PlayerID
	for _, c := range candidates {
		ids = append(ids, c.PlayerID)
	}
	return ids
}

func (s *QueueSuite) TestEnqueueCreatesUnknownPlayer() {
	c, err := s.queue.Enqueue(s.ctx, "alice", model.ModeStandard)
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, c.Rating)
	s.Equal(t0, c.EnqueuedAt)

	p, err := s.records.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(10, p.Tickets[model.ModeCurling])
}

func (s *QueueSuite) TestEnqueueRejections() {
	s.player("alice", 1500, 0)
	_, err := s.queue.Enqueue(s.ctx, "alice", model.ModeStandard)
	s.ErrorIs(err, model.ErrNoTicket)

	s.player("bob", 1500, 1)
	s.Require().NoError(s.storage.SetPresence(s.ctx, "bob", model.PresenceResting))
	_, err = s.queue.Enqueue(s.ctx, "bob", model.ModeStandard)
	s.ErrorIs(err, model.ErrNotEligible)

	_, err = s.queue.Enqueue(s.ctx, "bob", model.Mode("chess"))
	s.True(model.IsValidation(err))

	s.enqueue("carol")
	_, err = s.queue.Enqueue(s.ctx, "carol", model.ModeStandard)
	s.ErrorIs(err, model.ErrAlreadyQueued)
}

func (s *QueueSuite) TestTickPairsWithinWindow() {
	s.player("alice", 1500, 2)
	s.player("bob", 1550, 2)
	s.enqueue("alice")
	s.enqueue("bob")

	created := s.queue.Tick(s.ctx)
	s.Require().Len(created, 1)
	s.Empty(s.queued())
	s.Equal(1, s.tickets("alice"))
	s.Equal(1, s.tickets("bob"))

	presence, err := s.storage.GetPresence(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(model.PresenceInGame, presence)

	found := s.publisher.OfType(model.EventMatchFound)
	s.Require().Len(found, 1)
	s.Equal(created[0].ID, found[0].SessionID)
	payload := found[0].Payload.(model.MatchFoundPayload)
	s.Equal(model.PlayerID("alice"), payload.Players[model.Black])
}

func (s *QueueSuite) TestWindowWidensWithWait() {
	s.player("alice", 1500, 1)
	s.player("bob", 1700, 1)
	s.enqueue("alice")
	s.enqueue("bob")

	s.Empty(s.queue.Tick(s.ctx))
	s.Len(s.queued(), 2)

	s.clock.Advance(20 * time.Second)
	s.Len(s.queue.Tick(s.ctx), 1)
}

func (s *QueueSuite) TestGreedyPairsClosestFirst() {
	s.player("alice", 1500, 1)
	s.player("bob", 1520, 1)
	s.player("carol", 1540, 1)
	s.enqueue("alice")
	s.enqueue("bob")
	s.enqueue("carol")

	created := s.queue.Tick(s.ctx)
	s.Require().Len(created, 1)
	s.Equal([]model.PlayerID{"carol"}, s.queued())
}

func (s *QueueSuite) TestCancelledCandidateIsNeverPaired() {
	s.player("alice", 1500, 1)
	s.player("bob", 1500, 1)
	s.enqueue("alice")
	s.enqueue("bob")

	s.Require().NoError(s.queue.Dequeue(s.ctx, "bob", model.ModeStandard))
	s.Empty(s.queue.Tick(s.ctx))
	s.Equal([]model.PlayerID{"alice"}, s.queued())
	s.Equal(1, s.tickets("bob"))

	s.ErrorIs(s.queue.Dequeue(s.ctx, "bob", model.ModeStandard), model.ErrNotQueued)
}

func (s *QueueSuite) TestMissingTicketRefundsPartner() {
	s.player("alice", 1500, 1)
	s.player("bob", 1510, 1)
	s.enqueue("alice")
	s.enqueue("bob")
	s.player("bob", 1510, 0)

	s.Empty(s.queue.Tick(s.ctx))
	s.Equal(1, s.tickets("alice"))
	s.Equal([]model.PlayerID{"alice"}, s.queued())
}

func (s *QueueSuite) TestSessionFailureRequeuesBoth() {
	s.player("alice", 1500, 1)
	s.player("bob", 1510, 1)
	s.enqueue("alice")
	s.enqueue("bob")
	s.starter.err = errors.New("boom")

	s.Empty(s.queue.Tick(s.ctx))
	s.Equal(1, s.tickets("alice"))
	s.Equal(1, s.tickets("bob"))
	s.Equal([]model.PlayerID{"alice", "bob"}, s.queued())
}

func (s *QueueSuite) TestIneligiblePlayerIsSkipped() {
	s.player("alice", 1500, 1)
	s.player("bob", 1510, 1)
	s.enqueue("alice")
	s.enqueue("bob")
	s.Require().NoError(s.storage.SetPresence(s.ctx, "bob", model.PresenceSpectating))

	s.Empty(s.queue.Tick(s.ctx))
	s.Len(s.queued(), 2)
}

func (s *QueueSuite) TestFallsBackWhenStoreIsDown() {
	queue := NewQueue(downStorage{memory.New()}, s.records, s.starter, s.publisher, s.clock, s.random, DefaultConfig(), testutil.NopLogger())
	s.player("alice", 1500, 1)
	s.player("bob", 1500, 1)

	_, err := queue.Enqueue(s.ctx, "alice", model.ModeStandard)
	s.Require().NoError(err)
	s.True(queue.Degraded())
	_, err = queue.Enqueue(s.ctx, "bob", model.ModeStandard)
	s.Require().NoError(err)

	s.Len(queue.Tick(s.ctx), 1)
	s.Len(s.starter.created, 1)
}

func (s *QueueSuite) TestReturnsToSharedStoreOnceItAnswers() {
	store := &flakyStorage{Storage: memory.New()}
	store.down.Store(true)
	queue := NewQueue(store, s.records, s.starter, s.publisher, s.clock, s.random, DefaultConfig(), testutil.NopLogger())
	s.player("alice", 1500, 2)
	s.player("bob", 1500, 1)
	s.player("carol", 1520, 1)

	for _, id := range []model.PlayerID{"alice", "bob"} {
		_, err := queue.Enqueue(s.ctx, id, model.ModeStandard)
		s.Require().NoError(err)
	}
	s.Require().True(queue.Degraded())
	s.Len(queue.Tick(s.ctx), 1)
	s.True(queue.Degraded())

	store.down.Store(false)
	// Queued in process before any tick notices the store is back
	_, err := queue.Enqueue(s.ctx, "carol", model.ModeStandard)
	s.Require().NoError(err)
	// The game ends and the controller releases alice in the shared store
	s.Require().NoError(store.SetPresence(s.ctx, "alice", model.PresenceEligible))

	s.Empty(queue.Tick(s.ctx))
	s.False(queue.Degraded())
	shared, err := store.Storage.ListQueue(s.ctx, model.ModeStandard)
	s.Require().NoError(err)
	s.Require().Len(shared, 1)
	s.Equal(model.PlayerID("carol"), shared[0].PlayerID)

	_, err = queue.Enqueue(s.ctx, "alice", model.ModeStandard)
	s.Require().NoError(err)
	s.Len(queue.Tick(s.ctx), 1)
	s.Len(s.starter.created, 2)

	status, err := store.GetPresence(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PresenceInGame, status)
}

func (s *QueueSuite) TestPairingWithdrawsOtherModes() {
	s.Require().NoError(s.records.SavePlayer(s.ctx, &model.Player{
		ID:      "alice",
		Rating:  1500,
		Tickets: map[model.Mode]int{model.ModeStandard: 1, model.ModeCapture: 1},
	}))
	s.player("bob", 1500, 1)

	_, err := s.queue.Enqueue(s.ctx, "alice", model.ModeCapture)
	s.Require().NoError(err)
	s.enqueue("alice")
	s.enqueue("bob")

	s.Len(s.queue.Tick(s.ctx), 1)
	s.Empty(s.queued())
	capture, err := s.queue.Candidates(s.ctx, model.ModeCapture)
	s.Require().NoError(err)
	s.Empty(capture)
}

func (s *QueueSuite) TestSetPresence() {
	s.Require().NoError(s.queue.SetPresence(s.ctx, "alice", model.PresenceResting))
	status, err := s.storage.GetPresence(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PresenceResting, status)

	s.ErrorIs(s.queue.SetPresence(s.ctx, "alice", model.PresenceInGame), model.ErrInvalidPresence)

	s.Require().NoError(s.storage.SetPresence(s.ctx, "bob", model.PresenceInGame))
	s.ErrorIs(s.queue.SetPresence(s.ctx, "bob", model.PresenceEligible), model.ErrNotEligible)
}

func TestWindow(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, Window(cfg, 0))
	assert.Equal(t, 100, Window(cfg, 9*time.Second))
	assert.Equal(t, 200, Window(cfg, 25*time.Second))
	assert.Equal(t, 400, Window(cfg, time.Hour))
}
