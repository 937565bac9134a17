package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

// Records is an in-memory implementation of the records interface
type Records struct {
	mu sync.RWMutex

	players map[model.PlayerID]*model.Player
	games   map[model.SessionID]*model.GameRecord
}

// NewRecords creates an empty in-memory record store
func NewRecords() *Records {
	return &Records{
		players: make(map[model.PlayerID]*model.Player),
		games:   make(map[model.SessionID]*model.GameRecord),
	}
}

// Ensure Records implements the interface
var _ storage.Records = (*Records)(nil)

func copyPlayer(p *model.Player) *model.Player {
	cp := *p
	cp.Tickets = make(map[model.Mode]int, len(p.Tickets))
	for k, v := range p.Tickets {
		cp.Tickets[k] = v
	}
	return &cp
}

func (r *Records) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return copyPlayer(p), nil
}

func (r *Records) SavePlayer(ctx context.Context, player *model.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[player.ID] = copyPlayer(player)
	return nil
}

func (r *Records) ConsumeTicket(ctx context.Context, id model.PlayerID, mode model.Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	if p.Tickets[mode] <= 0 {
		return model.ErrNoTicket
	}
	p.Tickets[mode]--
	return nil
}

func (r *Records) RefundTicket(ctx context.Context, id model.PlayerID, mode model.Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	p.Tickets[mode]++
	return nil
}

func (r *Records) SaveGameRecord(ctx context.Context, record *model.GameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.games[record.SessionID] = &cp
	return nil
}

func (r *Records) GetGameRecord(ctx context.Context, id model.SessionID) (*model.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.games[id]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *Records) ListGameRecords(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.GameRecord
	for _, rec := range r.games {
		if rec.Black == playerID || rec.White == playerID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
