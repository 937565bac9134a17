package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// captureRules: first side to capture its target number of stones wins.
// Targets are set by the sealed bid before play.
type captureRules struct {
	standardRules
}

func (captureRules) Mode() model.Mode { return model.ModeCapture }

func (captureRules) Setup(s *model.Session) {
	if s.Variant.Targets == nil {
		s.Variant.Targets = bothColors(s.Config.CaptureTarget)
	}
}

func (captureRules) CheckWin(s *model.Session) *model.Outcome {
	return targetReached(s)
}

func (captureRules) FinalScore(s *model.Session, reason model.EndReason) *model.Outcome {
	return compareCaptures(s, reason)
}

// CaptureTargets returns the targets after a sealed bid: the winning bidder
// plays Black and must capture base+bid, White needs only base
func CaptureTargets(base, winningBid int) map[model.Color]int {
	return map[model.Color]int{
		model.Black: base + winningBid,
		model.White: base,
	}
}
