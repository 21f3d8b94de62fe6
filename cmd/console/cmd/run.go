package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the console and keep the session guard running",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig()

		application, err := app.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize console: %v\n", err)
			os.Exit(1)
		}

		return application.Run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
