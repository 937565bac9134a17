package rules

import (
	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// BaseStoneValue is the number of points credited for capturing a base stone
const BaseStoneValue = 5

// baseRules: each side starts with pre-placed base stones worth five points
// when captured. The square of a captured base stone can't be played again.
type baseRules struct {
	standardRules
}

func (baseRules) Mode() model.Mode { return model.ModeBase }

func (baseRules) ValidateExtra(s *model.Session, mover model.Color, a model.Action) error {
	if s.Variant.IsReserved(a.Point) {
		return model.ErrForbiddenCell
	}
	return nil
}

func (baseRules) OnCapture(s *model.Session, mover model.Color, captured []model.Point) int {
	points := 0
	for _, p := range captured {
		if !s.Variant.IsBaseStone(p) {
			points++
			continue
		}
		points += BaseStoneValue
		s.Variant.Reserved = append(s.Variant.Reserved, p)
		for i, b := range s.Variant.BaseStones {
			if b == p {
				s.Variant.BaseStones = append(s.Variant.BaseStones[:i], s.Variant.BaseStones[i+1:]...)
				break
			}
		}
	}
	return points
}

// ValidateBasePlacement checks a submitted set of base stone points
func ValidateBasePlacement(size, count int, points []model.Point) error {
	if len(points) != count {
		return model.ErrInvalidPlacement
	}
	seen := make(map[model.Point]bool, len(points))
	for _, p := range points {
		if p.Row < 0 || p.Row >= size || p.Col < 0 || p.Col >= size || seen[p] {
			return model.ErrInvalidPlacement
		}
		seen[p] = true
	}
	return nil
}

// ResolveBasePlacements settles both sides' base stones. Points chosen by
// both sides are dropped from each, and missing or invalid submissions are
// filled with random free points.
func ResolveBasePlacements(size, count int, first, second []model.Point, rnd random.Random) ([]model.Point, []model.Point) {
	if ValidateBasePlacement(size, count, first) != nil {
		first = nil
	}
	if ValidateBasePlacement(size, count, second) != nil {
		second = nil
	}

	taken := make(map[model.Point]int)
	for _, p := range first {
		taken[p]++
	}
	for _, p := range second {
		taken[p]++
	}

	keep := func(points []model.Point) []model.Point {
		var out []model.Point
		for _, p := range points {
			if taken[p] == 1 {
				out = append(out, p)
			}
		}
		return out
	}
	first, second = keep(first), keep(second)

	var free []model.Point
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			p := model.Point{Row: row, Col: col}
			if taken[p] == 0 {
				free = append(free, p)
			}
		}
	}
	fill := func(points []model.Point) []model.Point {
		for len(points) < count && len(free) > 0 {
			i := rnd.Intn(len(free))
			points = append(points, free[i])
			free = append(free[:i], free[i+1:]...)
		}
		return points
	}
	return fill(first), fill(second)
}

// PlaceBaseStones records the settled base stones as setup stones and puts
// them on the board
func PlaceBaseStones(s *model.Session, black, white []model.Point) {
	for _, p := range black {
		s.Setup = append(s.Setup, model.SetupStone{Point: p, Color: model.Black})
		s.Board.Set(p, model.Black)
	}
	for _, p := range white {
		s.Setup = append(s.Setup, model.SetupStone{Point: p, Color: model.White})
		s.Board.Set(p, model.White)
	}
	s.Variant.BaseStones = append(append([]model.Point(nil), black...), white...)
}
