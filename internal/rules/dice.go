package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// diceRules: a turn starts with a roll, the roll is the number of stones the
// side places before the turn passes. Passing ends the turn early.
type diceRules struct {
	standardRules
}

func (diceRules) Mode() model.Mode { return model.ModeDice }

func (diceRules) Setup(s *model.Session) {
	if s.Variant.Targets == nil {
		s.Variant.Targets = bothColors(s.Config.CaptureTarget)
	}
	s.Variant.DiceLeft = 0
	s.Variant.Rolled = false
}

func (diceRules) Allows(s *model.Session, kind model.ActionKind) bool {
	switch kind {
	case model.ActionPlace, model.ActionPass, model.ActionRoll:
		return true
	default:
		return false
	}
}

func (diceRules) ValidateExtra(s *model.Session, mover model.Color, a model.Action) error {
	switch a.Kind {
	case model.ActionRoll:
		if s.Variant.Rolled {
			return model.ErrActionNotAllowed
		}
	case model.ActionPlace:
		if !s.Variant.Rolled || s.Variant.DiceLeft <= 0 {
			return model.ErrMustRoll
		}
	}
	return nil
}

func (diceRules) OnMoveApplied(s *model.Session, res *Result) {
	switch res.Move.Kind {
	case model.ActionPlace:
		if res.Move.Blocked {
			return
		}
		s.Variant.DiceLeft--
		if s.Variant.DiceLeft > 0 && len(s.Board.EmptyPoints()) > 0 {
			res.MaintainTurn = true
			return
		}
		s.Variant.DiceLeft = 0
		s.Variant.Rolled = false
	case model.ActionPass:
		s.Variant.DiceLeft = 0
		s.Variant.Rolled = false
	}
}

func (diceRules) CheckWin(s *model.Session) *model.Outcome {
	return targetReached(s)
}

func (diceRules) FinalScore(s *model.Session, reason model.EndReason) *model.Outcome {
	return compareCaptures(s, reason)
}
