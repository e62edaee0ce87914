package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bennettsh/authkit/cmd/authkit-admin/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "authkit-admin",
		Short: "Administrative tool for the authkit service",
		Long:  "CLI tool for inspecting users and managing sessions",
	}

	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewSessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
