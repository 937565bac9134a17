package response

import (
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Rating      int            `json:"rating"`
	Tickets     map[string]int `json:"tickets,omitempty"`
	Wins        int            `json:"wins"`
	Losses      int            `json:"losses"`
	Draws       int            `json:"draws"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	tickets := make(map[string]int, len(p.Tickets))
	for m, n := range p.Tickets {
		tickets[string(m)] = n
	}
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Rating:      p.Rating,
		Tickets:     tickets,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Draws:       p.Draws,
	}
}

// AuthResponse is the response for token issuing endpoints
type AuthResponse struct {
	PlayerID  string    `json:"player_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		PlayerID:  string(s.PlayerID),
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}

// Candidate represents a queued player
type Candidate struct {
	PlayerID   string    `json:"player_id"`
	Mode       string    `json:"mode"`
	Rating     int       `json:"rating"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// CandidateFromModel converts model.Candidate
func CandidateFromModel(c model.Candidate) Candidate {
	return Candidate{
		PlayerID:   string(c.PlayerID),
		Mode:       string(c.Mode),
		Rating:     c.Rating,
		EnqueuedAt: c.EnqueuedAt,
	}
}

// Point is a board coordinate
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func pointFromModel(p model.Point) Point {
	return Point{Row: p.Row, Col: p.Col}
}

func pointsFromModel(points []model.Point) []Point {
	if len(points) == 0 {
		return nil
	}
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = pointFromModel(p)
	}
	return out
}

// Move represents one entry of the move log
type Move struct {
	Seq      int     `json:"seq"`
	Color    string  `json:"color"`
	Kind     string  `json:"kind"`
	Point    *Point  `json:"point,omitempty"`
	From     *Point  `json:"from,omitempty"`
	Captured []Point `json:"captured,omitempty"`
	Revealed []Point `json:"revealed,omitempty"`
	Blocked  bool    `json:"blocked,omitempty"`
	Out      bool    `json:"out,omitempty"`
	Value    int     `json:"value,omitempty"`
	Round    int     `json:"round,omitempty"`
}

// MoveFromModel converts model.Move
func MoveFromModel(m model.Move) Move {
	move := Move{
		Seq:      m.Seq,
		Color:    m.Color.String(),
		Kind:     string(m.Kind),
		Captured: pointsFromModel(m.Captured),
		Revealed: pointsFromModel(m.Revealed),
		Blocked:  m.Blocked,
		Out:      m.Out,
		Value:    m.Value,
		Round:    m.Round,
	}
	switch m.Kind {
	case model.ActionPass, model.ActionRoll:
	default:
		p := pointFromModel(m.Point)
		move.Point = &p
	}
	if m.From != nil {
		p := pointFromModel(*m.From)
		move.From = &p
	}
	return move
}

// Board represents a game board. Cells are "B", "W" or "" for empty.
type Board struct {
	Size  int        `json:"size"`
	Cells [][]string `json:"cells"`
}

// BoardFromModel converts model.Board to response Board
func BoardFromModel(b model.Board) Board {
	cells := make([][]string, b.Size)
	for row := 0; row < b.Size; row++ {
		cells[row] = make([]string, b.Size)
		for col := 0; col < b.Size; col++ {
			switch b.Get(model.Point{Row: row, Col: col}) {
			case model.Black:
				cells[row][col] = "B"
			case model.White:
				cells[row][col] = "W"
			}
		}
	}
	return Board{Size: b.Size, Cells: cells}
}

// Outcome represents the result of a finished session
type Outcome struct {
	Winner string             `json:"winner"`
	Reason string             `json:"reason"`
	Score  map[string]float64 `json:"score,omitempty"`
	Margin float64            `json:"margin"`
	Source string             `json:"source,omitempty"`
}

// OutcomeFromModel converts model.Outcome
func OutcomeFromModel(o *model.Outcome) *Outcome {
	if o == nil {
		return nil
	}
	out := &Outcome{
		Winner: o.Winner.String(),
		Reason: string(o.Reason),
		Margin: o.Margin,
		Source: o.Source,
	}
	if len(o.Score) > 0 {
		out.Score = make(map[string]float64, len(o.Score))
		for c, v := range o.Score {
			out.Score[c.String()] = v
		}
	}
	return out
}

// Session represents a session as seen by one viewer
type Session struct {
	ID        string            `json:"id"`
	Mode      string            `json:"mode"`
	Phase     string            `json:"phase"`
	PreGame   string            `json:"pregame"`
	YourColor string            `json:"your_color"`
	Players   map[string]string `json:"players"`
	Ready     map[string]bool   `json:"ready"`
	Connected map[string]bool   `json:"connected"`
	Komi      float64           `json:"komi"`
	Board     Board             `json:"board"`
	Moves     []Move            `json:"moves"`
	Captured  map[string]int    `json:"captured"`
	Targets   map[string]int    `json:"targets,omitempty"`
	BidRound  int               `json:"bid_round,omitempty"`
	Hidden    []Point           `json:"hidden,omitempty"`
	Deadline  *time.Time        `json:"deadline,omitempty"`
	Outcome   *Outcome          `json:"outcome,omitempty"`
	Version   int64             `json:"version"`
}

// SessionFromModel converts a session view. The session should already be
// masked for the viewer.
func SessionFromModel(s *model.Session, viewer model.Color) Session {
	moves := make([]Move, len(s.Moves))
	for i, m := range s.Moves {
		moves[i] = MoveFromModel(m)
	}

	resp := Session{
		ID:        string(s.ID),
		Mode:      string(s.Mode),
		Phase:     string(s.Phase),
		PreGame:   string(s.PreGame),
		YourColor: viewer.String(),
		Players:   colorMap(s.Players, func(id model.PlayerID) string { return string(id) }),
		Ready:     colorMap(s.Ready, func(b bool) bool { return b }),
		Connected: colorMap(s.Connected, func(b bool) bool { return b }),
		Komi:      s.Config.Komi,
		Board:     BoardFromModel(s.Board),
		Moves:     moves,
		Captured:  colorMap(s.Captured, func(n int) int { return n }),
		BidRound:  s.Variant.BidRound,
		Hidden:    pointsFromModel(s.Variant.Hidden),
		Outcome:   OutcomeFromModel(s.Outcome),
		Version:   s.Version,
	}
	if len(s.Variant.Targets) > 0 {
		resp.Targets = colorMap(s.Variant.Targets, func(n int) int { return n })
	}
	if !s.PhaseDeadline.IsZero() {
		deadline := s.PhaseDeadline
		resp.Deadline = &deadline
	}
	return resp
}

func colorMap[V, R any](m map[model.Color]V, conv func(V) R) map[string]R {
	out := make(map[string]R, len(m))
	for c, v := range m {
		out[c.String()] = conv(v)
	}
	return out
}

// PlayerClock represents one side's remaining time
type PlayerClock struct {
	MainLeftMs   int64 `json:"main_left_ms"`
	PeriodsLeft  int   `json:"periods_left"`
	PeriodLeftMs int64 `json:"period_left_ms"`
	SpentMs      int64 `json:"spent_ms"`
	Moves        int   `json:"moves"`
}

func playerClockFromModel(p model.PlayerClock) PlayerClock {
	return PlayerClock{
		MainLeftMs:   p.MainLeft.Milliseconds(),
		PeriodsLeft:  p.PeriodsLeft,
		PeriodLeftMs: p.PeriodLeft.Milliseconds(),
		SpentMs:      p.Spent.Milliseconds(),
		Moves:        p.Moves,
	}
}

// Clock represents a session clock
type Clock struct {
	Discipline string      `json:"discipline"`
	Turn       string      `json:"turn"`
	Black      PlayerClock `json:"black"`
	White      PlayerClock `json:"white"`
	Running    bool        `json:"running"`
	Paused     bool        `json:"paused"`
	Expired    string      `json:"expired,omitempty"`
}

// ClockFromModel converts model.Clock
func ClockFromModel(c *model.Clock) Clock {
	resp := Clock{
		Discipline: string(c.Config.Discipline),
		Turn:       c.Turn.String(),
		Black:      playerClockFromModel(c.Black),
		White:      playerClockFromModel(c.White),
		Running:    c.Running,
		Paused:     c.Paused(),
	}
	if c.Expired.IsPlayer() {
		resp.Expired = c.Expired.String()
	}
	return resp
}

// GameRecord represents a finished game
type GameRecord struct {
	SessionID  string             `json:"session_id"`
	Mode       string             `json:"mode"`
	Black      string             `json:"black"`
	White      string             `json:"white"`
	Winner     string             `json:"winner"`
	Reason     string             `json:"reason"`
	Score      map[string]float64 `json:"score,omitempty"`
	Moves      int                `json:"moves"`
	Rated      bool               `json:"rated"`
	SGF        string             `json:"sgf,omitempty"`
	FinishedAt time.Time          `json:"finished_at"`
}

// GameRecordFromModel converts model.GameRecord
func GameRecordFromModel(r *model.GameRecord) GameRecord {
	rec := GameRecord{
		SessionID:  string(r.SessionID),
		Mode:       string(r.Mode),
		Black:      string(r.Black),
		White:      string(r.White),
		Winner:     r.Winner.String(),
		Reason:     string(r.Reason),
		Moves:      r.Moves,
		Rated:      r.Rated,
		SGF:        r.SGF,
		FinishedAt: r.FinishedAt,
	}
	if len(r.Score) > 0 {
		rec.Score = colorMap(r.Score, func(v float64) float64 { return v })
	}
	return rec
}
