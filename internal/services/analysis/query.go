package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// gtpColumns skips I as GTP coordinates do
const gtpColumns = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// Query is a single position analysis request. The position is sent as
// initial stones so variant moves never need to be understood remotely.
type Query struct {
	ID               string      `json:"id"`
	Rules            string      `json:"rules"`
	Komi             float64     `json:"komi"`
	BoardXSize       int         `json:"boardXSize"`
	BoardYSize       int         `json:"boardYSize"`
	InitialStones    [][2]string `json:"initialStones"`
	InitialPlayer    string      `json:"initialPlayer"`
	Moves            [][2]string `json:"moves"`
	MaxVisits        int         `json:"maxVisits,omitempty"`
	IncludeOwnership bool        `json:"includeOwnership,omitempty"`
}

// RootInfo summarises the analysed position. ScoreLead is Black's lead.
type RootInfo struct {
	ScoreLead     float64 `json:"scoreLead"`
	Winrate       float64 `json:"winrate"`
	CurrentPlayer string  `json:"currentPlayer"`
}

// MoveInfo is one candidate move, Order 0 being the best
type MoveInfo struct {
	Move  string `json:"move"`
	Order int    `json:"order"`
}

// Response is the engine's answer to a Query
type Response struct {
	ID        string     `json:"id"`
	RootInfo  RootInfo   `json:"rootInfo"`
	MoveInfos []MoveInfo `json:"moveInfos"`
	Error     string     `json:"error,omitempty"`
}

// BestMove returns the candidate with the lowest order
func (r *Response) BestMove() (string, bool) {
	best := -1
	for i, m := range r.MoveInfos {
		if best < 0 || m.Order < r.MoveInfos[best].Order {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return r.MoveInfos[best].Move, true
}

// NewQuery describes the current position of a session with toMove to play
func NewQuery(s *model.Session, toMove model.Color) Query {
	q := Query{
		ID:            string(s.ID),
		Rules:         "chinese",
		Komi:          s.Config.Komi,
		BoardXSize:    s.Board.Size,
		BoardYSize:    s.Board.Size,
		InitialStones: [][2]string{},
		InitialPlayer: gtpColor(toMove),
		Moves:         [][2]string{},
	}
	for row := 0; row < s.Board.Size; row++ {
		for col := 0; col < s.Board.Size; col++ {
			p := model.Point{Row: row, Col: col}
			if c := s.Board.Get(p); c.IsPlayer() {
				q.InitialStones = append(q.InitialStones, [2]string{gtpColor(c), GTPPoint(p, s.Board.Size)})
			}
		}
	}
	return q
}

func gtpColor(c model.Color) string {
	if c == model.White {
		return "W"
	}
	return "B"
}

// GTPPoint formats a point as a GTP vertex, rows counted from the bottom
func GTPPoint(p model.Point, size int) string {
	return fmt.Sprintf("%c%d", gtpColumns[p.Col], size-p.Row)
}

// ParseGTPPoint parses a GTP vertex. pass is true for "pass".
func ParseGTPPoint(v string, size int) (p model.Point, pass bool, err error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "PASS" {
		return model.Point{}, true, nil
	}
	if len(v) < 2 {
		return model.Point{}, false, fmt.Errorf("invalid vertex %q", v)
	}
	col := strings.IndexByte(gtpColumns, v[0])
	num, err := strconv.Atoi(v[1:])
	if col < 0 || err != nil {
		return model.Point{}, false, fmt.Errorf("invalid vertex %q", v)
	}
	p = model.Point{Row: size - num, Col: col}
	if p.Row < 0 || p.Row >= size || p.Col >= size {
		return model.Point{}, false, fmt.Errorf("vertex %q out of range", v)
	}
	return p, false, nil
}
