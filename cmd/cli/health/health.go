package health

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/authsvc/cmd/cli/client"
	"github.com/crucial707/authsvc/cmd/cli/output"
	"github.com/crucial707/authsvc/internal/handlers"
)

func InitHealth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(healthCmd())
}

// healthCmd prints the service status and fails when the API reports degraded.
func healthCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the service and database status",
		// Degraded is reported through the error; usage text would corrupt --json output.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var h handlers.HealthResponse
			status, err := client.GetJSON(cmd.Context(), "/health", &h, true)
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}

			if asJSON {
				if err := output.RenderJSON(cmd.OutOrStdout(), h); err != nil {
					return err
				}
			} else {
				output.RenderTable(cmd.OutOrStdout(),
					[]string{"Service", "Status", "Database"},
					[][]interface{}{{h.Service, h.Status, h.DatabaseStatus}})
			}

			if h.Status != "ok" {
				return fmt.Errorf("service is %s (HTTP %d)", h.Status, status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON status")
	return cmd
}
