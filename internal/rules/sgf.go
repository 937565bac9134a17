package rules

import (
	"fmt"
	"strings"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// EncodeSGF renders the session as an SGF game record. Variant-only actions
// are kept as comments so the record still loads in ordinary SGF viewers.
func EncodeSGF(s *model.Session) string {
	var sb strings.Builder
	sb.WriteString("(;GM[1]FF[4]CA[UTF-8]")
	fmt.Fprintf(&sb, "SZ[%d]KM[%s]RU[%s]", s.Config.BoardSize, formatKomi(s.Config.Komi), s.Mode)
	fmt.Fprintf(&sb, "PB[%s]PW[%s]", sgfEscape(string(s.Players[model.Black])), sgfEscape(string(s.Players[model.White])))
	if s.Outcome != nil {
		fmt.Fprintf(&sb, "RE[%s]", sgfResult(s.Outcome))
	}

	var black, white []string
	for _, st := range s.Setup {
		if st.Color == model.Black {
			black = append(black, sgfPoint(st.Point))
		} else {
			white = append(white, sgfPoint(st.Point))
		}
	}
	if len(black) > 0 {
		sb.WriteString("AB[" + strings.Join(black, "][") + "]")
	}
	if len(white) > 0 {
		sb.WriteString("AW[" + strings.Join(white, "][") + "]")
	}

	for _, m := range s.Moves {
		tag := "B"
		if m.Color == model.White {
			tag = "W"
		}
		switch {
		case m.Kind == model.ActionPass:
			fmt.Fprintf(&sb, ";%s[]", tag)
		case m.Blocked:
			fmt.Fprintf(&sb, ";%s[]C[revealed %s]", tag, sgfPoint(m.Point))
		case m.Kind == model.ActionPlace:
			fmt.Fprintf(&sb, ";%s[%s]", tag, sgfPoint(m.Point))
		case m.Kind == model.ActionHidden:
			fmt.Fprintf(&sb, ";%s[%s]C[hidden]", tag, sgfPoint(m.Point))
		case m.Kind == model.ActionSlide && m.From != nil:
			fmt.Fprintf(&sb, ";%s[%s]C[slide from %s]", tag, sgfPoint(m.Point), sgfPoint(*m.From))
		case m.Kind == model.ActionToss && !m.Out:
			fmt.Fprintf(&sb, ";%s[%s]C[toss %d]", tag, sgfPoint(m.Point), m.Value)
		default:
			fmt.Fprintf(&sb, ";%s[]C[%s %d]", tag, m.Kind, m.Value)
		}
	}

	sb.WriteString(")")
	return sb.String()
}

func sgfPoint(p model.Point) string {
	return string([]byte{byte('a' + p.Col), byte('a' + p.Row)})
}

func sgfResult(o *model.Outcome) string {
	if o.Winner == model.Empty {
		return "0"
	}
	tag := "B"
	if o.Winner == model.White {
		tag = "W"
	}
	switch o.Reason {
	case model.EndResignation:
		return tag + "+R"
	case model.EndTimeout:
		return tag + "+T"
	case model.EndDoublePass, model.EndMoveLimit:
		if o.Margin > 0 {
			return fmt.Sprintf("%s+%s", tag, formatKomi(o.Margin))
		}
	}
	return tag + "+"
}

func formatKomi(v float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", v), "0"), ".")
}

func sgfEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `]`, `\]`).Replace(s)
}
