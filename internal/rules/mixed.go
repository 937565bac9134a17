package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// mixedRules rotates through a list of modes, switching every
// MixedInterval completed moves
type mixedRules struct{}

func (mixedRules) Mode() model.Mode { return model.ModeMixed }

func (mixedRules) Setup(s *model.Session) {
	if len(s.Config.MixedRotation) == 0 {
		s.Config.MixedRotation = []model.Mode{model.ModeStandard}
	}
	if s.Variant.Targets == nil {
		s.Variant.Targets = bothColors(s.Config.CaptureTarget)
	}
	setupHidden(s)
	setupMissiles(s)
	s.Variant.ActiveModule = ActiveMixedMode(s.Config, s.CompletedMoves())
}

// ActiveMixedMode returns the mode in force after the given number of
// completed moves
func ActiveMixedMode(cfg model.SessionConfig, completed int) model.Mode {
	if len(cfg.MixedRotation) == 0 {
		return model.ModeStandard
	}
	interval := cfg.MixedInterval
	if interval <= 0 {
		interval = 1
	}
	return cfg.MixedRotation[(completed/interval)%len(cfg.MixedRotation)]
}

func (mixedRules) active(s *model.Session) Module {
	if s.Variant.ActiveModule == "" || s.Variant.ActiveModule == model.ModeMixed {
		return standardRules{}
	}
	return moduleForMode(s.Variant.ActiveModule)
}

func (m mixedRules) Allows(s *model.Session, kind model.ActionKind) bool {
	return m.active(s).Allows(s, kind)
}

func (m mixedRules) ValidateExtra(s *model.Session, mover model.Color, a model.Action) error {
	return m.active(s).ValidateExtra(s, mover, a)
}

func (mixedRules) Captures() bool { return true }

func (m mixedRules) OnCapture(s *model.Session, mover model.Color, captured []model.Point) int {
	return m.active(s).OnCapture(s, mover, captured)
}

func (m mixedRules) OnMoveApplied(s *model.Session, res *Result) {
	m.active(s).OnMoveApplied(s, res)
	s.Variant.ActiveModule = ActiveMixedMode(s.Config, s.CompletedMoves())
}

func (m mixedRules) CheckWin(s *model.Session) *model.Outcome {
	if s.Variant.ActiveModule == model.ModeCapture {
		return targetReached(s)
	}
	return nil
}
