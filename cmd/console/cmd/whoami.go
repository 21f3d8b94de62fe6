package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/app"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session and who it belongs to",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig()

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize console: %w", err)
		}
		defer application.Shutdown()

		sessions := application.Sessions()
		if !sessions.IsAuthenticated() {
			fmt.Println("not logged in")
			return nil
		}

		profile, err := application.Store().Profile()
		switch {
		case errors.Is(err, credstore.ErrNotFound):
			fmt.Println("logged in (no profile stored)")
		case err != nil:
			return err
		default:
			name := profile.DisplayName()
			if name == "" {
				name = "(unknown)"
			}
			fmt.Printf("logged in as %s", name)
			if profile.Role != "" {
				fmt.Printf(" [%s]", profile.Role)
			}
			fmt.Println()
		}

		if sessions.IsExpired() {
			fmt.Println("session expired; log in again")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
