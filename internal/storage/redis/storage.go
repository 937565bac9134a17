package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, unavailable(err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// unavailable marks a client failure so callers can fall back
func unavailable(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
}

// Versioned documents

func (s *Storage) getDocument(ctx context.Context, key string, notFound error, v any) error {
	data, err := s.client.HGet(ctx, key, "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return unavailable(err)
	}
	return json.Unmarshal(data, v)
}

func (s *Storage) casDocument(ctx context.Context, key string, v any, version, expected int64, ttl time.Duration, notFound error) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	res, err := casScript.Run(ctx, s.client, []string{key},
		strconv.FormatInt(expected, 10),
		strconv.FormatInt(version, 10),
		data,
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return unavailable(err)
	}

	switch res {
	case casOK:
		return nil
	case casMissing:
		return notFound
	default:
		return model.ErrConcurrentUpdate
	}
}

// Session operations

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var sess model.Session
	if err := s.getDocument(ctx, sessionKey(id), model.ErrSessionNotFound, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Storage) CompareAndSwapSession(ctx context.Context, session *model.Session, expected int64) error {
	return s.casDocument(ctx, sessionKey(session.ID), session, session.Version, expected, s.cfg.SessionTTL, model.ErrSessionNotFound)
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.ZRem(ctx, deadlinesKey(), string(id))
	_, err := pipe.Exec(ctx)
	return unavailable(err)
}

// Deadline operations

func (s *Storage) SetDeadline(ctx context.Context, id model.SessionID, at time.Time) error {
	return unavailable(s.client.ZAdd(ctx, deadlinesKey(), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: string(id),
	}).Err())
}

func (s *Storage) ClearDeadline(ctx context.Context, id model.SessionID) error {
	return unavailable(s.client.ZRem(ctx, deadlinesKey(), string(id)).Err())
}

func (s *Storage) DueDeadlines(ctx context.Context, now time.Time) ([]model.SessionID, error) {
	members, err := s.client.ZRangeByScore(ctx, deadlinesKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	ids := make([]model.SessionID, len(members))
	for i, m := range members {
		ids[i] = model.SessionID(m)
	}
	return ids, nil
}

// Clock operations

func (s *Storage) GetClock(ctx context.Context, id model.SessionID) (*model.Clock, error) {
	var c model.Clock
	if err := s.getDocument(ctx, clockKey(id), model.ErrClockNotFound, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) CompareAndSwapClock(ctx context.Context, clock *model.Clock, expected int64) error {
	return s.casDocument(ctx, clockKey(clock.SessionID), clock, clock.Version, expected, s.cfg.ClockTTL, model.ErrClockNotFound)
}

func (s *Storage) DeleteClock(ctx context.Context, id model.SessionID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, clockKey(id))
	pipe.SRem(ctx, runningClocksKey(), string(id))
	_, err := pipe.Exec(ctx)
	return unavailable(err)
}

func (s *Storage) AddRunningClock(ctx context.Context, id model.SessionID) error {
	return unavailable(s.client.SAdd(ctx, runningClocksKey(), string(id)).Err())
}

func (s *Storage) RemoveRunningClock(ctx context.Context, id model.SessionID) error {
	return unavailable(s.client.SRem(ctx, runningClocksKey(), string(id)).Err())
}

func (s *Storage) ListRunningClocks(ctx context.Context) ([]model.SessionID, error) {
	members, err := s.client.SMembers(ctx, runningClocksKey()).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	ids := make([]model.SessionID, len(members))
	for i, m := range members {
		ids[i] = model.SessionID(m)
	}
	return ids, nil
}

// Queue operations

func (s *Storage) Enqueue(ctx context.Context, candidate model.Candidate) error {
	data, err := json.Marshal(candidate)
	if err != nil {
		return err
	}

	added, err := enqueueScript.Run(ctx, s.client,
		[]string{queueKey(candidate.Mode), queueEntriesKey(candidate.Mode)},
		string(candidate.PlayerID), candidate.Rating, data,
	).Int()
	if err != nil {
		return unavailable(err)
	}
	if added == 0 {
		return model.ErrAlreadyQueued
	}
	return nil
}

func (s *Storage) Dequeue(ctx context.Context, mode model.Mode, playerID model.PlayerID) error {
	removed, err := dequeueScript.Run(ctx, s.client,
		[]string{queueKey(mode), queueEntriesKey(mode)},
		string(playerID),
	).Int()
	if err != nil {
		return unavailable(err)
	}
	if removed == 0 {
		return model.ErrNotQueued
	}
	return nil
}

func (s *Storage) ListQueue(ctx context.Context, mode model.Mode) ([]model.Candidate, error) {
	ids, err := s.client.ZRange(ctx, queueKey(mode), 0, -1).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(ids) == 0 {
		return []model.Candidate{}, nil
	}

	values, err := s.client.HMGet(ctx, queueEntriesKey(mode), ids...).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]model.Candidate, 0, len(values))
	for _, v := range values {
		// An entry may vanish between the two reads
		str, ok := v.(string)
		if !ok {
			continue
		}
		var c model.Candidate
		if err := json.Unmarshal([]byte(str), &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	storage.SortCandidates(out)
	return out, nil
}

// Presence operations

func (s *Storage) GetPresence(ctx context.Context, playerID model.PlayerID) (model.PresenceStatus, error) {
	status, err := s.client.Get(ctx, presenceKey(playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.PresenceEligible, nil
		}
		return "", unavailable(err)
	}
	return model.PresenceStatus(status), nil
}

func (s *Storage) SetPresence(ctx context.Context, playerID model.PlayerID, status model.PresenceStatus) error {
	return unavailable(s.client.Set(ctx, presenceKey(playerID), string(status), s.cfg.PresenceTTL).Err())
}
