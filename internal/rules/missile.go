package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// missileRules: instead of placing, a side may slide one of its stones in a
// straight line until it hits another stone or the edge
type missileRules struct {
	standardRules
}

func (missileRules) Mode() model.Mode { return model.ModeMissile }

func (missileRules) Setup(s *model.Session) {
	setupMissiles(s)
}

func setupMissiles(s *model.Session) {
	if s.Variant.MissilesLeft == nil {
		s.Variant.MissilesLeft = bothColors(s.Config.MissileBudget)
	}
}

func (missileRules) Allows(s *model.Session, kind model.ActionKind) bool {
	switch kind {
	case model.ActionPlace, model.ActionPass, model.ActionSlide:
		return true
	default:
		return false
	}
}

func (missileRules) ValidateExtra(s *model.Session, mover model.Color, a model.Action) error {
	return validateMissile(s, mover, a)
}

func validateMissile(s *model.Session, mover model.Color, a model.Action) error {
	if a.Kind == model.ActionSlide && s.Variant.MissilesLeft[mover] <= 0 {
		return model.ErrNoBudget
	}
	return nil
}
