package root

import (
	"github.com/spf13/cobra"

	"github.com/crucial707/authsvc/cmd/cli/config"
)

// RootCmd is the authctl entry point. Subcommands attach themselves from main.
var RootCmd = &cobra.Command{
	Use:           "authctl",
	Short:         "Authentication service CLI",
	Long:          "Command line interface for registering, logging in and checking the authentication service.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&config.APIURLFlag, "api-url", "", "Base URL of the API (overrides "+config.APIURLEnv+")")
}

func GetRoot() *cobra.Command {
	return RootCmd
}
