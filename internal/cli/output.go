package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.AuthResponse:
		o.printAuth(v)
	case response.Candidate:
		o.printCandidate(v)
	case []response.Candidate:
		if len(v) == 0 {
			fmt.Fprintln(o.w, "Queue is empty")
		}
		for _, c := range v {
			o.printCandidate(c)
		}
	case response.Session:
		o.printSession(v)
	case response.Clock:
		o.printClock(v)
	case []response.GameRecord:
		o.printHistory(v)
	case HealthResult:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Rating: %d\n", p.Rating)
	fmt.Fprintf(o.w, "Record: %d-%d-%d\n", p.Wins, p.Losses, p.Draws)
	if len(p.Tickets) > 0 {
		modes := make([]string, 0, len(p.Tickets))
		for mode := range p.Tickets {
			modes = append(modes, mode)
		}
		sort.Strings(modes)
		parts := make([]string, len(modes))
		for i, mode := range modes {
			parts[i] = fmt.Sprintf("%s=%d", mode, p.Tickets[mode])
		}
		fmt.Fprintf(o.w, "Tickets: %s\n", strings.Join(parts, " "))
	}
}

func (o *Output) printAuth(a response.AuthResponse) {
	fmt.Fprintf(o.w, "Player: %s\n", a.PlayerID)
	fmt.Fprintf(o.w, "Token: %s\n", a.Token)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printCandidate(c response.Candidate) {
	fmt.Fprintf(o.w, "%s queued for %s (rating %d) since %s\n",
		c.PlayerID, c.Mode, c.Rating, c.EnqueuedAt.Format(time.Kitchen))
}

func (o *Output) printSession(s response.Session) {
	fmt.Fprintf(o.w, "Session: %s\n", s.ID)
	fmt.Fprintf(o.w, "Mode: %s\n", s.Mode)
	phase := s.Phase
	if s.PreGame != "" && s.PreGame != "none" {
		phase += " (" + s.PreGame + ")"
	}
	fmt.Fprintf(o.w, "Phase: %s\n", phase)
	fmt.Fprintf(o.w, "Black: %s%s\n", s.Players["black"], o.seatFlags(s, "black"))
	fmt.Fprintf(o.w, "White: %s%s\n", s.Players["white"], o.seatFlags(s, "white"))
	if s.YourColor != "empty" {
		fmt.Fprintf(o.w, "You: %s\n", s.YourColor)
	}
	fmt.Fprintf(o.w, "Captured: black %d, white %d\n", s.Captured["black"], s.Captured["white"])
	if len(s.Targets) > 0 {
		fmt.Fprintf(o.w, "Targets: black %d, white %d\n", s.Targets["black"], s.Targets["white"])
	}
	if s.Deadline != nil {
		fmt.Fprintf(o.w, "Deadline: %s\n", s.Deadline.Format(time.RFC3339))
	}

	fmt.Fprintln(o.w)
	o.printBoard(s.Board)

	if n := len(s.Moves); n > 0 {
		last := s.Moves[n-1]
		fmt.Fprintf(o.w, "\nLast move #%d: %s %s", last.Seq, last.Color, last.Kind)
		if last.Point != nil {
			fmt.Fprintf(o.w, " at %d,%d", last.Point.Row, last.Point.Col)
		}
		fmt.Fprintln(o.w)
	}

	if s.Outcome != nil {
		fmt.Fprintf(o.w, "\nWinner: %s (%s)\n", s.Outcome.Winner, s.Outcome.Reason)
		if len(s.Outcome.Score) > 0 {
			fmt.Fprintf(o.w, "Score: black %.1f, white %.1f\n", s.Outcome.Score["black"], s.Outcome.Score["white"])
		}
	}
}

func (o *Output) seatFlags(s response.Session, color string) string {
	var flags []string
	if s.Ready[color] {
		flags = append(flags, "ready")
	}
	if !s.Connected[color] {
		flags = append(flags, "disconnected")
	}
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, ", ") + "]"
}

func (o *Output) printBoard(b response.Board) {
	if b.Size == 0 || len(b.Cells) == 0 {
		return
	}

	// Column headers
	fmt.Fprint(o.w, "    ")
	for col := 0; col < b.Size; col++ {
		fmt.Fprintf(o.w, "%2d", col)
	}
	fmt.Fprintln(o.w)

	for row := 0; row < b.Size; row++ {
		fmt.Fprintf(o.w, " %2d ", row)
		for col := 0; col < b.Size; col++ {
			switch b.Cells[row][col] {
			case "B":
				fmt.Fprint(o.w, " X")
			case "W":
				fmt.Fprint(o.w, " O")
			default:
				fmt.Fprint(o.w, " .")
			}
		}
		fmt.Fprintln(o.w)
	}
}

func (o *Output) printClock(c response.Clock) {
	state := "stopped"
	switch {
	case c.Paused:
		state = "paused"
	case c.Running:
		state = "running"
	}
	fmt.Fprintf(o.w, "Clock: %s (%s), %s to move\n", c.Discipline, state, c.Turn)
	o.printPlayerClock("Black", c.Black)
	o.printPlayerClock("White", c.White)
	if c.Expired != "" {
		fmt.Fprintf(o.w, "Expired: %s\n", c.Expired)
	}
}

func (o *Output) printPlayerClock(label string, pc response.PlayerClock) {
	fmt.Fprintf(o.w, "  %s: main %s, %d periods of %s\n", label,
		time.Duration(pc.MainLeftMs)*time.Millisecond,
		pc.PeriodsLeft,
		time.Duration(pc.PeriodLeftMs)*time.Millisecond)
}

func (o *Output) printHistory(records []response.GameRecord) {
	if len(records) == 0 {
		fmt.Fprintln(o.w, "No games yet")
		return
	}
	for _, r := range records {
		rated := ""
		if r.Rated {
			rated = " rated"
		}
		fmt.Fprintf(o.w, "%s %s%s: %s vs %s, winner %s by %s (%d moves)\n",
			r.FinishedAt.Format("2006-01-02"), r.Mode, rated, r.Black, r.White, r.Winner, r.Reason, r.Moves)
	}
}

func (o *Output) printHealth(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Degraded {
		fmt.Fprintln(o.w, "Degraded: shared store unavailable, running on local fallback")
	}
}
