package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "inventarioPlus admin console",
	Long: `Terminal client for the inventarioPlus equipment inventory backend.
Handles login, session persistence and authenticated access to the API.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
