package rules

import "github.com/BlueStarAcademy/sudampvp/internal/model"

// SetupBoard returns an empty board holding only the setup stones
func SetupBoard(s *model.Session) model.Board {
	b := model.NewBoard(s.Config.BoardSize)
	for _, st := range s.Setup {
		b.Set(st.Point, st.Color)
	}
	return b
}

// Replay rebuilds the board from the setup stones and the move log.
// A change of round clears the board back to the setup stones.
func Replay(s *model.Session) model.Board {
	b := SetupBoard(s)
	round, started := 0, false

	for _, m := range s.Moves {
		if started && m.Round != round {
			b = SetupBoard(s)
		}
		round, started = m.Round, true

		if !m.ChangesBoard() {
			continue
		}
		switch m.Kind {
		case model.ActionSlide:
			if m.From != nil {
				b.Set(*m.From, model.Empty)
			}
			b.Set(m.Point, m.Color)
		case model.ActionToss:
			for _, sh := range m.Shifts {
				b.Set(sh.From, model.Empty)
				if !sh.Out {
					b.Set(sh.To, sh.Color)
				}
			}
			if !m.Out {
				b.Set(m.Point, m.Color)
			}
		default:
			b.Set(m.Point, m.Color)
		}
		RemoveStones(b, m.Captured)
	}

	if started && s.Variant.Round != round {
		b = SetupBoard(s)
	}
	return b
}
