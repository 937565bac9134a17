package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	sessions  map[model.SessionID]*model.Session
	deadlines map[model.SessionID]time.Time
	clocks    map[model.SessionID]model.Clock
	running   map[model.SessionID]bool
	queues    map[model.Mode]map[model.PlayerID]model.Candidate
	presence  map[model.PlayerID]model.PresenceStatus
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions:  make(map[model.SessionID]*model.Session),
		deadlines: make(map[model.SessionID]time.Time),
		clocks:    make(map[model.SessionID]model.Clock),
		running:   make(map[model.SessionID]bool),
		queues:    make(map[model.Mode]map[model.PlayerID]model.Candidate),
		presence:  make(map[model.PlayerID]model.PresenceStatus),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *Storage) CompareAndSwapSession(ctx context.Context, session *model.Session, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[session.ID]
	switch {
	case !ok && expected != 0:
		return model.ErrSessionNotFound
	case ok && current.Version != expected:
		return model.ErrConcurrentUpdate
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.deadlines, id)
	return nil
}

// Deadline operations

func (s *Storage) SetDeadline(ctx context.Context, id model.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[id] = at
	return nil
}

func (s *Storage) ClearDeadline(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, id)
	return nil
}

func (s *Storage) DueDeadlines(ctx context.Context, now time.Time) ([]model.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []model.SessionID
	for id, at := range s.deadlines {
		if !at.After(now) {
			due = append(due, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })
	return due, nil
}

// Clock operations

func (s *Storage) GetClock(ctx context.Context, id model.SessionID) (*model.Clock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clocks[id]
	if !ok {
		return nil, model.ErrClockNotFound
	}
	return &c, nil
}

func (s *Storage) CompareAndSwapClock(ctx context.Context, clock *model.Clock, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.clocks[clock.SessionID]
	switch {
	case !ok && expected != 0:
		return model.ErrClockNotFound
	case ok && current.Version != expected:
		return model.ErrConcurrentUpdate
	}
	s.clocks[clock.SessionID] = *clock
	return nil
}

func (s *Storage) DeleteClock(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clocks, id)
	delete(s.running, id)
	return nil
}

func (s *Storage) AddRunningClock(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[id] = true
	return nil
}

func (s *Storage) RemoveRunningClock(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
	return nil
}

func (s *Storage) ListRunningClocks(ctx context.Context) ([]model.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.SessionID, 0, len(s.running))
	for id := range s.running {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Queue operations

func (s *Storage) Enqueue(ctx context.Context, candidate model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.queues[candidate.Mode]
	if !ok {
		bucket = make(map[model.PlayerID]model.Candidate)
		s.queues[candidate.Mode] = bucket
	}
	if _, exists := bucket[candidate.PlayerID]; exists {
		return model.ErrAlreadyQueued
	}
	bucket[candidate.PlayerID] = candidate
	return nil
}

func (s *Storage) Dequeue(ctx context.Context, mode model.Mode, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.queues[mode]
	if _, ok := bucket[playerID]; !ok {
		return model.ErrNotQueued
	}
	delete(bucket, playerID)
	return nil
}

func (s *Storage) ListQueue(ctx context.Context, mode model.Mode) ([]model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.queues[mode]
	out := make([]model.Candidate, 0, len(bucket))
	for _, c := range bucket {
		out = append(out, c)
	}
	storage.SortCandidates(out)
	return out, nil
}

// Presence operations

func (s *Storage) GetPresence(ctx context.Context, playerID model.PlayerID) (model.PresenceStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status, ok := s.presence[playerID]; ok {
		return status, nil
	}
	return model.PresenceEligible, nil
}

func (s *Storage) SetPresence(ctx context.Context, playerID model.PlayerID, status model.PresenceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[playerID] = status
	return nil
}
