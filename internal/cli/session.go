package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"game"},
		Short:   "Game session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionClockCmd())

	// Actions without arguments
	cmd.AddCommand(newActionCmd("ready <id>", "Mark yourself ready", "ready", 0, nil))
	cmd.AddCommand(newActionCmd("pass <id>", "Pass your turn", "pass", 0, nil))
	cmd.AddCommand(newActionCmd("resign <id>", "Resign the game", "resign", 0, nil))
	cmd.AddCommand(newActionCmd("roll <id>", "Roll the dice", "roll", 0, nil))

	// Actions on a single point
	cmd.AddCommand(newActionCmd("move <id> <row> <col>", "Place a stone", "move", 2, pointBody))
	cmd.AddCommand(newActionCmd("hidden <id> <row> <col>", "Place a hidden stone", "hidden", 2, pointBody))
	cmd.AddCommand(newActionCmd("scan <id> <row> <col>", "Scan a point for hidden stones", "scan", 2, pointBody))
	cmd.AddCommand(newActionCmd("slide <id> <row> <col> <up|down|left|right>", "Slide a stone", "slide", 3,
		func(args []string) (map[string]any, error) {
			body, err := pointBody(args[:2])
			if err != nil {
				return nil, err
			}
			body["direction"] = args[2]
			return body, nil
		}))

	// Pre-game and variant actions
	cmd.AddCommand(newActionCmd("bid <id> <amount>", "Submit a sealed bid", "bid", 1,
		func(args []string) (map[string]any, error) {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("invalid amount: %w", err)
			}
			return map[string]any{"amount": amount}, nil
		}))
	cmd.AddCommand(newActionCmd("color <id> <black|white>", "Pick a color", "color", 1,
		func(args []string) (map[string]any, error) {
			return map[string]any{"color": args[0]}, nil
		}))
	cmd.AddCommand(newActionCmd("place <id> <row,col>...", "Submit base stone placements", "placement", -1,
		func(args []string) (map[string]any, error) {
			points := make([]response.Point, 0, len(args))
			for _, arg := range args {
				p, err := parsePoint(arg)
				if err != nil {
					return nil, err
				}
				points = append(points, p)
			}
			return map[string]any{"points": points}, nil
		}))
	cmd.AddCommand(newActionCmd("toss <id> <column> <power>", "Throw a curling stone", "toss", 2,
		func(args []string) (map[string]any, error) {
			column, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("invalid column: %w", err)
			}
			power, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("invalid power: %w", err)
			}
			return map[string]any{"column": column, "power": power}, nil
		}))

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <mode>",
		Short: "Start an unrated game against the AI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session

			if err := client.Post(cmd.Context(), "/api/v1/sessions", map[string]string{"mode": args[0]}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session

			if err := client.Get(cmd.Context(), "/api/v1/sessions/"+args[0], &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionClockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clock <id>",
		Short: "Show a session's clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Clock

			if err := client.Get(cmd.Context(), "/api/v1/sessions/"+args[0]+"/clock", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

// newActionCmd builds a command posting action to /sessions/{id}/{action}.
// nargs counts the arguments after the session id, -1 for one or more.
func newActionCmd(use, short, action string, nargs int, body func(args []string) (map[string]any, error)) *cobra.Command {
	validate := cobra.ExactArgs(nargs + 1)
	if nargs < 0 {
		validate = cobra.MinimumNArgs(2)
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  validate,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req any
			if body != nil {
				fields, err := body(args[1:])
				if err != nil {
					return err
				}
				req = fields
			}

			var result response.Session
			path := fmt.Sprintf("/api/v1/sessions/%s/%s", args[0], action)
			if err := client.Post(cmd.Context(), path, req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func pointBody(args []string) (map[string]any, error) {
	p, err := parsePoint(args[0] + "," + args[1])
	if err != nil {
		return nil, err
	}
	return map[string]any{"point": p}, nil
}

// parsePoint reads "row,col"
func parsePoint(s string) (response.Point, error) {
	rowStr, colStr, ok := strings.Cut(s, ",")
	if !ok {
		return response.Point{}, fmt.Errorf("invalid point %q: want row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return response.Point{}, fmt.Errorf("invalid row: %w", err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return response.Point{}, fmt.Errorf("invalid col: %w", err)
	}
	return response.Point{Row: row, Col: col}, nil
}
