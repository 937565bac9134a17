package model

import (
	"strings"
	"time"
)

// SessionID uniquely identifies a game session
type SessionID string

// Mode selects the rule module a session is played under
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeCapture  Mode = "capture"
	ModeBase     Mode = "base"
	ModeHidden   Mode = "hidden"
	ModeMissile  Mode = "missile"
	ModeMixed    Mode = "mixed"
	ModeOmok     Mode = "omok"
	ModeTtamok   Mode = "ttamok"
	ModeDice     Mode = "dice"
	ModeThief    Mode = "thief"
	ModeCurling  Mode = "curling"
)

// AllModes lists every playable mode
var AllModes = []Mode{
	ModeStandard, ModeCapture, ModeBase, ModeHidden, ModeMissile, ModeMixed,
	ModeOmok, ModeTtamok, ModeDice, ModeThief, ModeCurling,
}

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllModes {
		if m == known {
			return m, nil
		}
	}
	return "", ErrInvalidMode
}

// Phase is the lifecycle state of a session
type Phase string

const (
	PhaseCreated   Phase = "created"
	PhasePreGame   Phase = "pregame"
	PhaseReadyWait Phase = "ready_wait"
	PhaseActive    Phase = "active"
	PhaseScoring   Phase = "scoring"
	PhaseFinished  Phase = "finished"
)

// PreGameKind identifies which pre-play negotiation is in progress
type PreGameKind string

const (
	PreGameNone      PreGameKind = "none"
	PreGameSealedBid PreGameKind = "sealed_bid"
	PreGameColorPick PreGameKind = "color_pick"
	PreGamePlacement PreGameKind = "placement"
)

// ActionKind identifies what a move does
type ActionKind string

const (
	ActionPlace  ActionKind = "place"
	ActionPass   ActionKind = "pass"
	ActionHidden ActionKind = "hidden"
	ActionSlide  ActionKind = "slide"
	ActionScan   ActionKind = "scan"
	ActionRoll   ActionKind = "roll"
	ActionToss   ActionKind = "toss"
)

// Action is a move request submitted by a player
type Action struct {
	Kind      ActionKind
	Point     Point     // Target for place/hidden/scan, origin for slide, column for toss
	Direction Direction // slide only
	Power     int       // toss only
}

// Shift records a stone displaced by a toss
type Shift struct {
	From  Point
	To    Point
	Out   bool // left the board
	Color Color
}

// Move is one entry of the session move log
type Move struct {
	Seq      int
	Color    Color
	Kind     ActionKind
	Point    Point
	From     *Point  // slide origin
	Captured []Point // stones removed by this move
	Revealed []Point
	Shifts   []Shift
	Blocked  bool // landed on a hidden stone, nothing placed
	Out      bool // tossed stone left the board
	Value    int  // dice roll or toss power
	Round    int
	At       time.Time
}

// ChangesBoard returns true if replaying the move alters the stones on the board
func (m Move) ChangesBoard() bool {
	if m.Blocked {
		return false
	}
	switch m.Kind {
	case ActionPlace, ActionHidden, ActionSlide, ActionToss:
		return true
	default:
		return false
	}
}

// SetupStone is a stone placed before the first move
type SetupStone struct {
	Point Point
	Color Color
}

// SessionConfig holds per-session tunables
type SessionConfig struct {
	BoardSize          int
	Komi               float64
	MaxMoves           int // 0 means BoardSize²·2
	Clock              ClockConfig
	CaptureTarget      int // capture, ttamok, dice
	BaseStones         int
	HiddenBudget       int
	ScanBudget         int
	MissileBudget      int
	MixedRotation      []Mode
	MixedInterval      int
	ThiefTurnsPerRound int
	CurlingStones      int
	CurlingRounds      int
	MaxBid             int
	PreGameTimeout     time.Duration
	ReadyTimeout       time.Duration
	RevealWindow       time.Duration
	Rated              bool
}

// DefaultSessionConfig returns sensible settings for a mode
func DefaultSessionConfig(mode Mode) SessionConfig {
	cfg := SessionConfig{
		BoardSize:          19,
		Komi:               6.5,
		Clock:              DefaultClockConfig(),
		CaptureTarget:      20,
		BaseStones:         4,
		HiddenBudget:       3,
		ScanBudget:         2,
		MissileBudget:      3,
		MixedRotation:      []Mode{ModeStandard, ModeCapture, ModeHidden, ModeMissile},
		MixedInterval:      10,
		ThiefTurnsPerRound: 10,
		CurlingStones:      5,
		CurlingRounds:      3,
		MaxBid:             50,
		PreGameTimeout:     30 * time.Second,
		ReadyTimeout:       30 * time.Second,
		RevealWindow:       2 * time.Second,
		Rated:              true,
	}
	switch mode {
	case ModeCapture, ModeDice:
		cfg.BoardSize = 9
		cfg.CaptureTarget = 10
		cfg.Komi = 0
	case ModeOmok, ModeTtamok:
		cfg.BoardSize = 15
		cfg.CaptureTarget = 10
		cfg.Komi = 0
	case ModeThief:
		cfg.BoardSize = 9
		cfg.Komi = 0
	case ModeCurling:
		cfg.BoardSize = 9
		cfg.Komi = 0
	case ModeHidden, ModeMissile, ModeMixed, ModeBase:
		cfg.BoardSize = 13
	}
	return cfg
}

// MoveCeiling returns the configured move limit
func (c SessionConfig) MoveCeiling() int {
	if c.MaxMoves > 0 {
		return c.MaxMoves
	}
	return c.BoardSize * c.BoardSize * 2
}

// KoState remembers the last single-stone capture
type KoState struct {
	Mover      Color // color that made the capture
	PlayedAt   Point // where the capturing stone was played
	CapturedAt Point // the lone stone that was removed
}

// VariantState holds the mode-specific sub-state of a session
type VariantState struct {
	// Sealed bidding (capture) and komi bidding (base)
	Bids     map[PlayerID]int `json:",omitempty"`
	BidRound int              `json:",omitempty"`
	CoinFlip bool             `json:",omitempty"`

	// Base stones
	ColorPicks     map[PlayerID]Color   `json:",omitempty"`
	BasePlacements map[PlayerID][]Point `json:",omitempty"`
	BaseStones     []Point              `json:",omitempty"`
	Reserved       []Point              `json:",omitempty"` // squares of captured base stones

	// Capture goals
	Targets map[Color]int `json:",omitempty"`

	// Hidden stones, scans and missiles
	Hidden       []Point       `json:",omitempty"`
	HiddenLeft   map[Color]int `json:",omitempty"`
	ScansLeft    map[Color]int `json:",omitempty"`
	MissilesLeft map[Color]int `json:",omitempty"`

	// Dice
	DiceLeft int  `json:",omitempty"`
	Rolled   bool `json:",omitempty"`

	// Round based modes (thief, curling)
	Round         int           `json:",omitempty"`
	RoundMoves    int           `json:",omitempty"`
	RoundScores   map[Color]int `json:",omitempty"`
	RoundCaptures map[Color]int `json:",omitempty"`
	ThiefColor    Color         `json:",omitempty"`
	TossesLeft    map[Color]int `json:",omitempty"`

	// Mixed
	ActiveModule Mode `json:",omitempty"`
}

// IsHidden returns true if p holds a stone the opponent cannot see
func (v *VariantState) IsHidden(p Point) bool {
	return containsPoint(v.Hidden, p)
}

// Reveal removes p from the hidden set, returning true if it was hidden
func (v *VariantState) Reveal(p Point) bool {
	for i, h := range v.Hidden {
		if h == p {
			v.Hidden = append(v.Hidden[:i], v.Hidden[i+1:]...)
			return true
		}
	}
	return false
}

// IsBaseStone returns true if p holds a base stone
func (v *VariantState) IsBaseStone(p Point) bool {
	return containsPoint(v.BaseStones, p)
}

// IsReserved returns true if p may never be played
func (v *VariantState) IsReserved(p Point) bool {
	return containsPoint(v.Reserved, p)
}

func containsPoint(points []Point, p Point) bool {
	for _, q := range points {
		if q == p {
			return true
		}
	}
	return false
}

// EndReason describes why a session finished
type EndReason string

const (
	EndDoublePass  EndReason = "double_pass"
	EndResignation EndReason = "resignation"
	EndTimeout     EndReason = "timeout"
	EndVariantWin  EndReason = "variant_win"
	EndMoveLimit   EndReason = "move_limit"
	EndAbandoned   EndReason = "abandoned"
)

// Outcome is the result of a finished session
type Outcome struct {
	Winner Color // Empty for a draw
	Reason EndReason
	Score  map[Color]float64 `json:",omitempty"`
	Margin float64
	Source string `json:",omitempty"` // which scorer produced Score
}

// Session is one game between two players
type Session struct {
	ID      SessionID
	Mode    Mode
	Phase   Phase
	PreGame PreGameKind
	Config  SessionConfig

	Players   map[Color]PlayerID
	Ready     map[Color]bool
	Connected map[Color]bool

	Board    Board
	Setup    []SetupStone
	Moves    []Move
	Captured map[Color]int // points captured by each color

	Variant           VariantState
	Ko                *KoState
	Positions         []string // fingerprints of every position reached
	ConsecutivePasses int
	PendingEnd        EndReason `json:",omitempty"`
	Outcome           *Outcome

	PhaseDeadline time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
}

// ColorOf returns the color played by a participant, or Empty
func (s *Session) ColorOf(id PlayerID) Color {
	for c, p := range s.Players {
		if p == id {
			return c
		}
	}
	return Empty
}

// IsTerminal returns true once no further moves can be made
func (s *Session) IsTerminal() bool {
	return s.Phase == PhaseFinished
}

// CompletedMoves counts moves that ended a turn segment (excludes scans, rolls and blocked moves)
func (s *Session) CompletedMoves() int {
	n := 0
	for _, m := range s.Moves {
		switch {
		case m.Blocked, m.Kind == ActionScan, m.Kind == ActionRoll:
		default:
			n++
		}
	}
	return n
}

// Clone returns a deep copy suitable for speculative changes
func (s *Session) Clone() *Session {
	cp := *s
	cp.Board = s.Board.Clone()
	cp.Players = cloneMap(s.Players)
	cp.Ready = cloneMap(s.Ready)
	cp.Connected = cloneMap(s.Connected)
	cp.Captured = cloneMap(s.Captured)
	cp.Setup = append([]SetupStone(nil), s.Setup...)
	cp.Moves = append([]Move(nil), s.Moves...)
	cp.Positions = append([]string(nil), s.Positions...)
	if s.Ko != nil {
		ko := *s.Ko
		cp.Ko = &ko
	}
	if s.Outcome != nil {
		out := *s.Outcome
		out.Score = cloneMap(s.Outcome.Score)
		cp.Outcome = &out
	}
	cp.Variant = s.Variant.clone()
	return &cp
}

func (v VariantState) clone() VariantState {
	cp := v
	cp.Bids = cloneMap(v.Bids)
	cp.ColorPicks = cloneMap(v.ColorPicks)
	if v.BasePlacements != nil {
		cp.BasePlacements = make(map[PlayerID][]Point, len(v.BasePlacements))
		for k, pts := range v.BasePlacements {
			cp.BasePlacements[k] = append([]Point(nil), pts...)
		}
	}
	cp.BaseStones = append([]Point(nil), v.BaseStones...)
	cp.Reserved = append([]Point(nil), v.Reserved...)
	cp.Targets = cloneMap(v.Targets)
	cp.Hidden = append([]Point(nil), v.Hidden...)
	cp.HiddenLeft = cloneMap(v.HiddenLeft)
	cp.ScansLeft = cloneMap(v.ScansLeft)
	cp.MissilesLeft = cloneMap(v.MissilesLeft)
	cp.RoundScores = cloneMap(v.RoundScores)
	cp.RoundCaptures = cloneMap(v.RoundCaptures)
	cp.TossesLeft = cloneMap(v.TossesLeft)
	return cp
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ViewFor returns a copy with the opponent's hidden stones masked out.
// Spectators (Empty) see no hidden stones at all.
func (s *Session) ViewFor(viewer Color) *Session {
	view := s.Clone()
	if s.Phase == PhaseFinished {
		return view
	}
	var visible, masked []Point
	for _, p := range view.Variant.Hidden {
		if viewer != Empty && view.Board.Get(p) == viewer {
			visible = append(visible, p)
			continue
		}
		masked = append(masked, p)
		view.Board.Set(p, Empty)
	}
	for i, m := range view.Moves {
		if m.Color != viewer && containsPoint(masked, m.Point) {
			view.Moves[i].Point = Point{Row: -1, Col: -1}
		}
	}
	view.Variant.Hidden = visible
	view.Positions = nil
	view.Variant.Bids = nil
	view.Variant.BasePlacements = nil
	return view
}
