package rules

import (
	"slices"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// Result describes the effect of an applied move
type Result struct {
	Move          model.Move
	Captured      int // points credited to the mover
	CapturePoints []model.Point
	Revealed      []model.Point
	MaintainTurn  bool // mover plays again, the clock is not switched
	Pause         bool // a reveal happened, pause the clock for the reveal window
	Outcome       *model.Outcome
	EndReason     model.EndReason // set when play stops and the game needs scoring
}

// Engine validates and applies moves
type Engine struct {
	random random.Random
}

// NewEngine creates a rule engine. Randomness is used for dice rolls.
func NewEngine(random random.Random) *Engine {
	return &Engine{random: random}
}

// Prepare initializes the mode sub-state and the position history at the
// start of play
func Prepare(s *model.Session) {
	if s.Captured == nil {
		s.Captured = map[model.Color]int{model.Black: 0, model.White: 0}
	}
	ModuleFor(s).Setup(s)
	s.Ko = nil
	s.ConsecutivePasses = 0
	s.Positions = []string{Fingerprint(s.Board)}
}

// Apply validates a move by mover against the session and commits it.
// toMove is the turn holder according to the clock. On error the session is
// unchanged and the error wraps a model.ValidationError.
func (e *Engine) Apply(s *model.Session, toMove, mover model.Color, a model.Action, now time.Time) (*Result, error) {
	if s.Phase != model.PhaseActive {
		return nil, model.Invalid(model.ErrPhaseNotActive)
	}
	if !mover.IsPlayer() || mover != toMove {
		return nil, model.Invalid(model.ErrNotPlayerTurn)
	}

	mod := ModuleFor(s)
	if !mod.Allows(s, a.Kind) {
		return nil, model.Invalid(model.ErrActionNotAllowed)
	}
	if s.Captured == nil {
		s.Captured = map[model.Color]int{}
	}

	var res *Result
	var err error
	switch a.Kind {
	case model.ActionPass:
		res = e.pass(s)
	case model.ActionPlace, model.ActionHidden:
		res, err = e.place(s, mod, mover, a)
	case model.ActionSlide:
		res, err = e.slide(s, mod, mover, a)
	case model.ActionScan:
		res, err = e.scan(s, mod, mover, a)
	case model.ActionRoll:
		res, err = e.roll(s, mod, mover, a)
	case model.ActionToss:
		res, err = e.toss(s, mod, mover, a)
	default:
		return nil, model.Invalid(model.ErrActionNotAllowed)
	}
	if err != nil {
		return nil, model.Invalid(err)
	}

	res.Move.Seq = len(s.Moves) + 1
	res.Move.Color = mover
	res.Move.Kind = a.Kind
	res.Move.Round = s.Variant.Round
	res.Move.At = now
	s.Moves = append(s.Moves, res.Move)

	mod.OnMoveApplied(s, res)

	if res.Outcome == nil {
		res.Outcome = mod.CheckWin(s)
	}
	if res.Outcome == nil && res.EndReason == "" {
		switch {
		case s.ConsecutivePasses >= 2:
			res.EndReason = model.EndDoublePass
		case s.CompletedMoves() >= s.Config.MoveCeiling():
			res.EndReason = model.EndMoveLimit
		}
	}

	return res, nil
}

func (e *Engine) pass(s *model.Session) *Result {
	s.ConsecutivePasses++
	s.Ko = nil
	return &Result{Move: model.Move{Kind: model.ActionPass}}
}

func (e *Engine) place(s *model.Session, mod Module, mover model.Color, a model.Action) (*Result, error) {
	p := a.Point
	if !s.Board.InBounds(p) {
		return nil, model.ErrInvalidPosition
	}
	if err := mod.ValidateExtra(s, mover, a); err != nil {
		return nil, err
	}

	// Landing on a stone the mover could not see reveals it instead
	if s.Board.Get(p) == mover.Opponent() && s.Variant.IsHidden(p) {
		s.Variant.Reveal(p)
		s.ConsecutivePasses = 0
		return &Result{
			Move:         model.Move{Point: p, Blocked: true, Revealed: []model.Point{p}},
			Revealed:     []model.Point{p},
			MaintainTurn: true,
			Pause:        true,
		}, nil
	}
	if !s.Board.IsEmpty(p) {
		return nil, model.ErrCellOccupied
	}

	board := s.Board.Clone()
	board.Set(p, mover)
	captured, fingerprint, err := resolvePlacement(s, mod, board, p, mover)
	if err != nil {
		return nil, err
	}

	res := &Result{Move: model.Move{Point: p}}
	e.commit(s, mod, board, p, mover, captured, fingerprint, res)

	if a.Kind == model.ActionHidden {
		s.Variant.HiddenLeft[mover]--
		// a hidden stone that captures on placement is seen immediately
		if len(captured) == 0 {
			s.Variant.Hidden = append(s.Variant.Hidden, p)
		} else {
			res.Revealed = append(res.Revealed, p)
		}
	}
	res.Move.Revealed = res.Revealed
	res.Pause = len(res.Revealed) > 0
	return res, nil
}

func (e *Engine) slide(s *model.Session, mod Module, mover model.Color, a model.Action) (*Result, error) {
	from := a.Point
	if !s.Board.InBounds(from) {
		return nil, model.ErrInvalidPosition
	}
	if s.Board.Get(from) != mover {
		return nil, model.ErrNotOwnStone
	}
	dr, dc, ok := a.Direction.Delta()
	if !ok {
		return nil, model.ErrSlideBlocked
	}
	if err := mod.ValidateExtra(s, mover, a); err != nil {
		return nil, err
	}

	board := s.Board.Clone()
	board.Set(from, model.Empty)
	dest := from
	for {
		next := dest.Step(dr, dc)
		if !board.IsEmpty(next) || s.Variant.IsReserved(next) {
			break
		}
		dest = next
	}
	if dest == from {
		return nil, model.ErrSlideBlocked
	}
	board.Set(dest, mover)

	captured, fingerprint, err := resolvePlacement(s, mod, board, dest, mover)
	if err != nil {
		return nil, err
	}

	origin := from
	res := &Result{Move: model.Move{Point: dest, From: &origin}}
	if s.Variant.Reveal(from) {
		res.Revealed = append(res.Revealed, dest)
	}
	// a hidden stone that stopped the slide is exposed by the impact
	if blocker := dest.Step(dr, dc); s.Board.Get(blocker) == mover.Opponent() && s.Variant.Reveal(blocker) {
		res.Revealed = append(res.Revealed, blocker)
	}
	e.commit(s, mod, board, dest, mover, captured, fingerprint, res)
	s.Variant.MissilesLeft[mover]--
	res.Move.Revealed = res.Revealed
	res.Pause = len(res.Revealed) > 0
	return res, nil
}

func (e *Engine) scan(s *model.Session, mod Module, mover model.Color, a model.Action) (*Result, error) {
	p := a.Point
	if !s.Board.InBounds(p) {
		return nil, model.ErrInvalidPosition
	}
	if err := mod.ValidateExtra(s, mover, a); err != nil {
		return nil, err
	}
	s.Variant.ScansLeft[mover]--

	res := &Result{Move: model.Move{Point: p}, MaintainTurn: true}
	if s.Board.Get(p) == mover.Opponent() && s.Variant.Reveal(p) {
		res.Revealed = []model.Point{p}
		res.Move.Revealed = res.Revealed
		res.Pause = true
	}
	return res, nil
}

func (e *Engine) roll(s *model.Session, mod Module, mover model.Color, a model.Action) (*Result, error) {
	if err := mod.ValidateExtra(s, mover, a); err != nil {
		return nil, err
	}
	value := e.random.Intn(6) + 1
	s.Variant.DiceLeft = value
	s.Variant.Rolled = true
	return &Result{Move: model.Move{Value: value}, MaintainTurn: true}, nil
}

func (e *Engine) toss(s *model.Session, mod Module, mover model.Color, a model.Action) (*Result, error) {
	if a.Point.Col < 0 || a.Point.Col >= s.Board.Size {
		return nil, model.ErrInvalidPosition
	}
	if a.Power < 1 || a.Power > 2*s.Board.Size {
		return nil, model.ErrInvalidPower
	}
	if err := mod.ValidateExtra(s, mover, a); err != nil {
		return nil, err
	}

	board := s.Board.Clone()
	rest, out, shifts := Toss(board, mover, a.Point.Col, a.Power)
	s.Board = board
	s.ConsecutivePasses = 0
	s.Ko = nil
	return &Result{Move: model.Move{Point: rest, Out: out, Shifts: shifts, Value: a.Power}}, nil
}

// resolvePlacement removes captured stones from board (which already holds
// the new stone at p) and checks suicide, simple ko and repeated positions
func resolvePlacement(s *model.Session, mod Module, board model.Board, p model.Point, mover model.Color) ([]model.Point, string, error) {
	if !mod.Captures() {
		return nil, "", nil
	}

	captured := CapturedBy(board, p, mover)
	RemoveStones(board, captured)

	if Liberties(board, p) == 0 {
		return nil, "", model.ErrSuicide
	}
	if violatesKo(s.Ko, mover, p, captured) {
		return nil, "", model.ErrKo
	}
	fingerprint := Fingerprint(board)
	if slices.Contains(s.Positions, fingerprint) {
		return nil, "", model.ErrSuperko
	}
	return captured, fingerprint, nil
}

// violatesKo reports whether playing at p recaptures the lone stone that just
// captured at p
func violatesKo(ko *model.KoState, mover model.Color, p model.Point, captured []model.Point) bool {
	if ko == nil || ko.Mover != mover.Opponent() {
		return false
	}
	return len(captured) == 1 && p == ko.CapturedAt && captured[0] == ko.PlayedAt
}

func (e *Engine) commit(s *model.Session, mod Module, board model.Board, p model.Point, mover model.Color, captured []model.Point, fingerprint string, res *Result) {
	if len(captured) > 0 {
		res.Captured = mod.OnCapture(s, mover, captured)
		s.Captured[mover] += res.Captured
		res.CapturePoints = captured

		for _, c := range captured {
			if s.Variant.Reveal(c) {
				res.Revealed = append(res.Revealed, c)
			}
		}
		// hidden stones of the capturing side that touched a captured stone
		for _, c := range captured {
			for _, n := range board.Neighbors(c) {
				if board.Get(n) == mover && s.Variant.Reveal(n) {
					res.Revealed = append(res.Revealed, n)
				}
			}
		}
	}

	s.Board = board
	res.Move.Captured = captured

	if mod.Captures() && len(captured) == 1 {
		s.Ko = &model.KoState{Mover: mover, PlayedAt: p, CapturedAt: captured[0]}
	} else {
		s.Ko = nil
	}
	if fingerprint != "" {
		s.Positions = append(s.Positions, fingerprint)
	}
	s.ConsecutivePasses = 0
}

// IsLegal reports whether mover may place a stone at p without changing s
func (e *Engine) IsLegal(s *model.Session, mover model.Color, p model.Point) bool {
	probe := s.Clone()
	_, err := e.Apply(probe, mover, mover, model.Action{Kind: model.ActionPlace, Point: p}, time.Time{})
	return err == nil
}

// LegalPlacements lists the points where mover may place a stone
func (e *Engine) LegalPlacements(s *model.Session, mover model.Color) []model.Point {
	var out []model.Point
	for _, p := range s.Board.EmptyPoints() {
		if e.IsLegal(s, mover, p) {
			out = append(out, p)
		}
	}
	return out
}
