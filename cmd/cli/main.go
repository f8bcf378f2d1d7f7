package main

import (
	"fmt"
	"os"

	"github.com/crucial707/authsvc/cmd/cli/auth"
	"github.com/crucial707/authsvc/cmd/cli/health"
	"github.com/crucial707/authsvc/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	health.InitHealth(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
