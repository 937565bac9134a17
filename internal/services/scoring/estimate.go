package scoring

import (
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/rules"
)

// SourceLocal identifies outcomes produced by Estimate
const SourceLocal = "local"

// Territory returns the empty points owned by each color: empty regions
// bordered only by that color's stones
func Territory(b model.Board) map[model.Color][]model.Point {
	owned := map[model.Color][]model.Point{}
	seen := make(map[model.Point]bool)

	for _, start := range b.EmptyPoints() {
		if seen[start] {
			continue
		}

		var region []model.Point
		borders := map[model.Color]bool{}
		stack := []model.Point{start}
		seen[start] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			region = append(region, p)

			for _, n := range b.Neighbors(p) {
				switch c := b.Get(n); c {
				case model.Empty:
					if !seen[n] {
						seen[n] = true
						stack = append(stack, n)
					}
				default:
					borders[c] = true
				}
			}
		}

		if len(borders) == 1 {
			for c := range borders {
				owned[c] = append(owned[c], region...)
			}
		}
	}
	return owned
}

// Estimate scores the final position by area: stones on the board plus
// owned territory plus captures, with komi added for White
func Estimate(s *model.Session, reason model.EndReason) *model.Outcome {
	territory := Territory(s.Board)

	score := map[model.Color]float64{}
	for _, c := range []model.Color{model.Black, model.White} {
		score[c] = float64(s.Board.Count(c) + len(territory[c]) + s.Captured[c])
	}
	score[model.White] += s.Config.Komi

	out := &model.Outcome{
		Reason: reason,
		Score:  score,
		Source: SourceLocal,
	}
	switch diff := score[model.Black] - score[model.White]; {
	case diff > 0:
		out.Winner = model.Black
		out.Margin = diff
	case diff < 0:
		out.Winner = model.White
		out.Margin = -diff
	}
	return out
}

// FinalOutcome scores a session that stopped with reason, preferring the
// mode's own scoring when it has one
func FinalOutcome(s *model.Session, reason model.EndReason) *model.Outcome {
	if scorer, ok := rules.ModuleFor(s).(rules.FinalScorer); ok {
		return scorer.FinalScore(s, reason)
	}
	return Estimate(s, reason)
}
