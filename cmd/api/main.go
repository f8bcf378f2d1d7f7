// Command authd serves the credential API: POST /register, POST /login and GET /health.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "authd"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootCmd runs serve when no subcommand is given.
func rootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Authentication service",
		Long:          "Registers accounts, verifies credentials and issues signed access tokens.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, migrateCmd())
	return root
}
