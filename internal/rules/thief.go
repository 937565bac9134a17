package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// ThiefRounds is the number of rounds in a thief game; roles swap between them
const ThiefRounds = 2

// thiefRules: one side plays the thief, the other the police whose stones
// are placed hidden. At the end of a round the thief scores its surviving
// stones and the police score the thief stones they captured. The board is
// cleared and roles swap for the second round.
type thiefRules struct {
	standardRules
}

func (thiefRules) Mode() model.Mode { return model.ModeThief }

func (thiefRules) Setup(s *model.Session) {
	if s.Variant.Round == 0 {
		s.Variant.Round = 1
	}
	if s.Variant.ThiefColor == model.Empty {
		s.Variant.ThiefColor = model.Black
	}
	if s.Variant.RoundScores == nil {
		s.Variant.RoundScores = bothColors(0)
	}
	if s.Variant.RoundCaptures == nil {
		s.Variant.RoundCaptures = bothColors(0)
	}
}

func (thiefRules) OnCapture(s *model.Session, mover model.Color, captured []model.Point) int {
	if mover != s.Variant.ThiefColor {
		s.Variant.RoundCaptures[mover] += len(captured)
	}
	return len(captured)
}

func (t thiefRules) OnMoveApplied(s *model.Session, res *Result) {
	mv := res.Move
	if mv.Blocked {
		return
	}
	police := s.Variant.ThiefColor.Opponent()
	if mv.Kind == model.ActionPlace && mv.Color == police && s.Board.Get(mv.Point) == police {
		s.Variant.Hidden = append(s.Variant.Hidden, mv.Point)
	}

	s.Variant.RoundMoves++
	roundOver := s.Variant.RoundMoves >= 2*s.Config.ThiefTurnsPerRound || s.ConsecutivePasses >= 2
	if !roundOver {
		return
	}

	thief := s.Variant.ThiefColor
	s.Variant.RoundScores[thief] += s.Board.Count(thief)
	s.Variant.RoundScores[police] += s.Variant.RoundCaptures[police]

	if s.Variant.Round >= ThiefRounds {
		res.Outcome = roundOutcome(s, model.EndVariantWin, "rounds")
		return
	}

	s.Variant.Round++
	s.Variant.ThiefColor = police
	s.Variant.RoundMoves = 0
	s.Variant.RoundCaptures = bothColors(0)
	resetRound(s)
}

func (thiefRules) FinalScore(s *model.Session, reason model.EndReason) *model.Outcome {
	return roundOutcome(s, reason, "rounds")
}

// resetRound clears the board back to its setup stones for a new round
func resetRound(s *model.Session) {
	s.Board = SetupBoard(s)
	s.Variant.Hidden = nil
	s.Ko = nil
	s.ConsecutivePasses = 0
	s.Positions = []string{Fingerprint(s.Board)}
}

// roundOutcome decides the game on accumulated round scores
func roundOutcome(s *model.Session, reason model.EndReason, source string) *model.Outcome {
	b, w := s.Variant.RoundScores[model.Black], s.Variant.RoundScores[model.White]
	out := &model.Outcome{
		Reason: reason,
		Score:  map[model.Color]float64{model.Black: float64(b), model.White: float64(w)},
		Source: source,
	}
	switch {
	case b > w:
		out.Winner = model.Black
		out.Margin = float64(b - w)
	case w > b:
		out.Winner = model.White
		out.Margin = float64(w - b)
	}
	return out
}
