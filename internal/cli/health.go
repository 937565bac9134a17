package cli

import (
	"github.com/spf13/cobra"
)

// HealthResult is the health endpoint response
type HealthResult struct {
	Status   string `json:"status"`
	Degraded bool   `json:"degraded,omitempty"`
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
