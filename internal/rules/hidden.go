package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// hiddenRules: each side may place a limited number of stones the opponent
// can't see, and may scan a point to expose an opposing hidden stone
type hiddenRules struct {
	standardRules
}

func (hiddenRules) Mode() model.Mode { return model.ModeHidden }

func (hiddenRules) Setup(s *model.Session) {
	setupHidden(s)
}

func setupHidden(s *model.Session) {
	if s.Variant.HiddenLeft == nil {
		s.Variant.HiddenLeft = bothColors(s.Config.HiddenBudget)
	}
	if s.Variant.ScansLeft == nil {
		s.Variant.ScansLeft = bothColors(s.Config.ScanBudget)
	}
}

func (hiddenRules) Allows(s *model.Session, kind model.ActionKind) bool {
	switch kind {
	case model.ActionPlace, model.ActionPass, model.ActionHidden, model.ActionScan:
		return true
	default:
		return false
	}
}

func (hiddenRules) ValidateExtra(s *model.Session, mover model.Color, a model.Action) error {
	return validateHidden(s, mover, a)
}

func validateHidden(s *model.Session, mover model.Color, a model.Action) error {
	switch a.Kind {
	case model.ActionHidden:
		if s.Variant.HiddenLeft[mover] <= 0 {
			return model.ErrNoBudget
		}
	case model.ActionScan:
		if s.Variant.ScansLeft[mover] <= 0 {
			return model.ErrNoBudget
		}
	}
	return nil
}
