package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// Module layers a mode's rules on top of the shared board primitives
type Module interface {
	Mode() model.Mode

	// Setup initializes the variant sub-state when play begins
	Setup(s *model.Session)

	// Allows reports whether an action kind is playable right now
	Allows(s *model.Session, kind model.ActionKind) bool

	// ValidateExtra rejects moves forbidden by the mode (budgets, reserved cells)
	ValidateExtra(s *model.Session, mover model.Color, a model.Action) error

	// Captures reports whether groups without liberties are removed.
	// Modes without captures skip suicide and ko checks.
	Captures() bool

	// OnCapture is called before the captured stones are removed and returns
	// the points credited to mover
	OnCapture(s *model.Session, mover model.Color, captured []model.Point) int

	// OnMoveApplied runs after the move has been committed to the session
	OnMoveApplied(s *model.Session, res *Result)

	// CheckWin returns an outcome if the mode's win condition has been met
	CheckWin(s *model.Session) *model.Outcome
}

// FinalScorer is implemented by modes that decide the winner themselves
// instead of by area scoring
type FinalScorer interface {
	FinalScore(s *model.Session, reason model.EndReason) *model.Outcome
}

// ModuleFor returns the rule module for a session's mode
func ModuleFor(s *model.Session) Module {
	return moduleForMode(s.Mode)
}

func moduleForMode(mode model.Mode) Module {
	switch mode {
	case model.ModeCapture:
		return captureRules{}
	case model.ModeBase:
		return baseRules{}
	case model.ModeHidden:
		return hiddenRules{}
	case model.ModeMissile:
		return missileRules{}
	case model.ModeMixed:
		return mixedRules{}
	case model.ModeOmok:
		return omokRules{}
	case model.ModeTtamok:
		return ttamokRules{}
	case model.ModeDice:
		return diceRules{}
	case model.ModeThief:
		return thiefRules{}
	case model.ModeCurling:
		return curlingRules{}
	default:
		return standardRules{}
	}
}

// standardRules are plain capture Go scored by area
type standardRules struct{}

func (standardRules) Mode() model.Mode { return model.ModeStandard }

func (standardRules) Setup(s *model.Session) {}

func (standardRules) Allows(s *model.Session, kind model.ActionKind) bool {
	return kind == model.ActionPlace || kind == model.ActionPass
}

func (standardRules) ValidateExtra(s *model.Session, mover model.Color, a model.Action) error {
	return nil
}

func (standardRules) Captures() bool { return true }

func (standardRules) OnCapture(s *model.Session, mover model.Color, captured []model.Point) int {
	return len(captured)
}

func (standardRules) OnMoveApplied(s *model.Session, res *Result) {}

func (standardRules) CheckWin(s *model.Session) *model.Outcome { return nil }

// compareCaptures decides a game by captured points; equal counts draw
func compareCaptures(s *model.Session, reason model.EndReason) *model.Outcome {
	b, w := s.Captured[model.Black], s.Captured[model.White]
	out := &model.Outcome{
		Reason: reason,
		Score:  map[model.Color]float64{model.Black: float64(b), model.White: float64(w)},
		Source: "captures",
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

// targetReached returns the first color whose captures meet its target
func targetReached(s *model.Session) *model.Outcome {
	for _, c := range []model.Color{model.Black, model.White} {
		target, ok := s.Variant.Targets[c]
		if ok && target > 0 && s.Captured[c] >= target {
			return &model.Outcome{
				Winner: c,
				Reason: model.EndVariantWin,
				Score: map[model.Color]float64{
					model.Black: float64(s.Captured[model.Black]),
					model.White: float64(s.Captured[model.White]),
				},
				Source: "capture_target",
			}
		}
	}
	return nil
}

func bothColors(v int) map[model.Color]int {
	return map[model.Color]int{model.Black: v, model.White: v}
}
