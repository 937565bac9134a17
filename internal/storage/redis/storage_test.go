package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.StorageSuite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour
	cfg.ClockTTL = time.Hour
	cfg.PresenceTTL = 30 * time.Minute

	s.storage = NewWithClient(client, cfg)
	s.Store = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestSessionTTLApplied() {
	sess := &model.Session{ID: "s-ttl", Mode: model.ModeStandard, Board: model.NewBoard(9), Version: 1}
	s.Require().NoError(s.storage.CompareAndSwapSession(s.Ctx, sess, 0))

	s.True(s.mini.Exists(sessionKey("s-ttl")))
	s.Equal(time.Hour, s.mini.TTL(sessionKey("s-ttl")))
}

func (s *StorageSuite) TestSessionStoredAsVersionedHash() {
	sess := &model.Session{ID: "s-1", Mode: model.ModeStandard, Board: model.NewBoard(9), Version: 7}
	s.Require().NoError(s.storage.CompareAndSwapSession(s.Ctx, sess, 0))

	s.Equal("7", s.mini.HGet(sessionKey("s-1"), "v"))
	s.Contains(s.mini.HGet(sessionKey("s-1"), "data"), `"Mode":"standard"`)
}

func (s *StorageSuite) TestPresenceTTLApplied() {
	s.Require().NoError(s.storage.SetPresence(s.Ctx, "alice", model.PresenceResting))
	s.Equal(30*time.Minute, s.mini.TTL(presenceKey("alice")))
}

func (s *StorageSuite) TestDeleteSessionClearsDeadline() {
	sess := &model.Session{ID: "s-1", Board: model.NewBoard(9), Version: 1}
	s.Require().NoError(s.storage.CompareAndSwapSession(s.Ctx, sess, 0))
	s.Require().NoError(s.storage.SetDeadline(s.Ctx, "s-1", time.Unix(0, 0)))

	s.Require().NoError(s.storage.DeleteSession(s.Ctx, "s-1"))

	due, err := s.storage.DueDeadlines(s.Ctx, time.Now())
	s.Require().NoError(err)
	s.Empty(due)
}

func (s *StorageSuite) TestUnavailableStoreIsReported() {
	s.mini.Close()

	_, err := s.storage.GetSession(s.Ctx, "s-1")
	s.ErrorIs(err, model.ErrStoreUnavailable)

	err = s.storage.Enqueue(s.Ctx, model.Candidate{PlayerID: "alice", Mode: model.ModeStandard})
	s.ErrorIs(err, model.ErrStoreUnavailable)

	_, err = s.storage.ListQueue(s.Ctx, model.ModeStandard)
	s.ErrorIs(err, model.ErrStoreUnavailable)
}
