package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// curlingRules: stones are tossed from each side's home row along a column.
// After both sides have thrown their stones the round is scored by stones
// closer to the centre than the opponent's closest one.
type curlingRules struct{}

func (curlingRules) Mode() model.Mode { return model.ModeCurling }

func (curlingRules) Setup(s *model.Session) {
	if s.Variant.Round == 0 {
		s.Variant.Round = 1
	}
	if s.Variant.TossesLeft == nil {
		s.Variant.TossesLeft = bothColors(s.Config.CurlingStones)
	}
	if s.Variant.RoundScores == nil {
		s.Variant.RoundScores = bothColors(0)
	}
}

func (curlingRules) Allows(s *model.Session, kind model.ActionKind) bool {
	return kind == model.ActionToss || kind == model.ActionPass
}

func (curlingRules) ValidateExtra(s *model.Session, mover model.Color, a model.Action) error {
	if s.Variant.TossesLeft[mover] <= 0 {
		return model.ErrNoBudget
	}
	return nil
}

func (curlingRules) Captures() bool { return false }

func (curlingRules) OnCapture(s *model.Session, mover model.Color, captured []model.Point) int {
	return 0
}

func (curlingRules) OnMoveApplied(s *model.Session, res *Result) {
	mover := res.Move.Color
	if s.Variant.TossesLeft[mover] > 0 {
		s.Variant.TossesLeft[mover]--
	}
	// a pass forfeits a stone, it never ends the game
	s.ConsecutivePasses = 0

	if s.Variant.TossesLeft[model.Black] > 0 || s.Variant.TossesLeft[model.White] > 0 {
		return
	}

	if winner, points := ScoreCurlingRound(s.Board); winner != model.Empty {
		s.Variant.RoundScores[winner] += points
	}

	rounds := s.Config.CurlingRounds
	if rounds <= 0 {
		rounds = 1
	}
	if s.Variant.Round >= rounds {
		res.Outcome = roundOutcome(s, model.EndVariantWin, "curling")
		return
	}

	s.Variant.Round++
	s.Variant.TossesLeft = bothColors(s.Config.CurlingStones)
	resetRound(s)
}

func (curlingRules) CheckWin(s *model.Session) *model.Outcome { return nil }

func (curlingRules) FinalScore(s *model.Session, reason model.EndReason) *model.Outcome {
	return roundOutcome(s, reason, "curling")
}

// Toss throws a stone of color mover into column col with the given power.
// Black throws from the bottom edge upward, White from the top edge downward.
// The stone advances one cell per point of power. On hitting a stone it stops
// and knocks that stone forward by half the remaining power. A stone pushed
// past the far edge is out. A stone that cannot leave its home row because the
// cell stayed blocked is out too. The board is modified in place.
func Toss(b model.Board, mover model.Color, col, power int) (model.Point, bool, []model.Shift) {
	dr := -1
	pos := model.Point{Row: b.Size, Col: col}
	if mover == model.White {
		dr = 1
		pos = model.Point{Row: -1, Col: col}
	}

	var shifts []model.Shift
	remaining := power
	for remaining > 0 {
		next := pos.Step(dr, 0)
		if !b.InBounds(next) {
			return next, true, shifts
		}
		if b.Get(next) != model.Empty {
			if shift, moved := knock(b, next, dr, remaining/2); moved {
				shifts = append(shifts, shift)
			}
			if !b.InBounds(pos) && b.Get(next) == model.Empty {
				// the blocker on the home cell was knocked clear
				pos = next
			}
			break
		}
		pos = next
		remaining--
	}

	if !b.InBounds(pos) {
		// the home cell is still blocked
		return pos, true, shifts
	}
	b.Set(pos, mover)
	return pos, false, shifts
}

// knock slides the stone at from up to push cells along the column
func knock(b model.Board, from model.Point, dr, push int) (model.Shift, bool) {
	color := b.Get(from)
	cur := from
	for i := 0; i < push; i++ {
		next := cur.Step(dr, 0)
		if !b.InBounds(next) {
			b.Set(from, model.Empty)
			return model.Shift{From: from, To: next, Out: true, Color: color}, true
		}
		if b.Get(next) != model.Empty {
			break
		}
		cur = next
	}
	if cur == from {
		return model.Shift{}, false
	}
	b.Set(from, model.Empty)
	b.Set(cur, color)
	return model.Shift{From: from, To: cur, Color: color}, true
}

// ScoreCurlingRound returns the side holding the stone nearest the centre and
// how many of its stones are nearer than the opponent's nearest stone
func ScoreCurlingRound(b model.Board) (model.Color, int) {
	centre := model.Point{Row: b.Size / 2, Col: b.Size / 2}
	dist := func(p model.Point) int {
		dr, dc := p.Row-centre.Row, p.Col-centre.Col
		return dr*dr + dc*dc
	}

	nearest := map[model.Color]int{model.Black: -1, model.White: -1}
	stones := map[model.Color][]int{}
	for i, c := range b.Cells {
		if c == model.Empty {
			continue
		}
		d := dist(model.Point{Row: i / b.Size, Col: i % b.Size})
		stones[c] = append(stones[c], d)
		if nearest[c] < 0 || d < nearest[c] {
			nearest[c] = d
		}
	}

	nb, nw := nearest[model.Black], nearest[model.White]
	var winner model.Color
	switch {
	case nb < 0 && nw < 0:
		return model.Empty, 0
	case nw < 0 || (nb >= 0 && nb < nw):
		winner = model.Black
	case nb < 0 || nw < nb:
		winner = model.White
	default:
		return model.Empty, 0
	}

	limit := nearest[winner.Opponent()]
	points := 0
	for _, d := range stones[winner] {
		if limit < 0 || d < limit {
			points++
		}
	}
	return winner, points
}
