package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Matchmaking queue commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "join <mode>",
		Short: "Queue for a rated game (spends a ticket once matched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Candidate

			if err := client.Post(cmd.Context(), "/api/v1/queue", map[string]string{"mode": args[0]}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "leave <mode>",
		Short: "Leave the queue for a mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/queue/"+args[0]); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Left %s queue", args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <mode>",
		Short: "List players waiting for a mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Candidate

			if err := client.Get(cmd.Context(), "/api/v1/queue/"+args[0], &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newPresenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presence <eligible|resting|spectating>",
		Short: "Set your matchmaking availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Put(cmd.Context(), "/api/v1/presence", map[string]string{"status": args[0]}, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage("Presence set to " + args[0])
			return nil
		},
	}
}
