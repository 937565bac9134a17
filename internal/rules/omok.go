package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// WinLength is the line length that wins omok and ttamok
const WinLength = 5

// omokRules: five in a row wins, stones are never captured
type omokRules struct {
	standardRules
}

func (omokRules) Mode() model.Mode { return model.ModeOmok }

func (omokRules) Captures() bool { return false }

func (omokRules) CheckWin(s *model.Session) *model.Outcome {
	return lineWin(s)
}

func (omokRules) FinalScore(s *model.Session, reason model.EndReason) *model.Outcome {
	return &model.Outcome{Reason: reason, Source: "line"}
}

// ttamokRules: five in a row on a board with captures; reaching the capture
// target also wins
type ttamokRules struct {
	standardRules
}

func (ttamokRules) Mode() model.Mode { return model.ModeTtamok }

func (ttamokRules) Setup(s *model.Session) {
	if s.Variant.Targets == nil {
		s.Variant.Targets = bothColors(s.Config.CaptureTarget)
	}
}

func (ttamokRules) CheckWin(s *model.Session) *model.Outcome {
	if out := lineWin(s); out != nil {
		return out
	}
	return targetReached(s)
}

func (ttamokRules) FinalScore(s *model.Session, reason model.EndReason) *model.Outcome {
	return compareCaptures(s, reason)
}

// lineWin checks the last placed stone for a winning line
func lineWin(s *model.Session) *model.Outcome {
	if len(s.Moves) == 0 {
		return nil
	}
	last := s.Moves[len(s.Moves)-1]
	if last.Kind != model.ActionPlace || last.Blocked {
		return nil
	}
	if s.Board.Get(last.Point) != last.Color {
		return nil
	}
	if LineLength(s.Board, last.Point) >= WinLength {
		return &model.Outcome{Winner: last.Color, Reason: model.EndVariantWin, Source: "line"}
	}
	return nil
}
