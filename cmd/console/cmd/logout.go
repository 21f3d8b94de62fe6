package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/app"
)

var logoutRevoke bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Long: `Removes the saved token and profile. With --revoke the server is also
asked to invalidate the token; the local session is cleared either way,
even when the server is unreachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig()

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize console: %w", err)
		}
		defer application.Shutdown()

		if logoutRevoke {
			if err := application.Controller().RevokeAndClear(cmd.Context()); err != nil {
				return err
			}
		} else {
			application.Controller().Logout(true)
		}

		fmt.Println("logged out")
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutRevoke, "revoke", false, "also revoke the token server-side")

	rootCmd.AddCommand(logoutCmd)
}
