package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/app"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig()

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize console: %w", err)
		}
		defer application.Shutdown()

		if err := application.Controller().Login(cmd.Context(), loginUsername, loginPassword); err != nil {
			return err
		}

		profile, err := application.Store().Profile()
		if err == nil && profile != nil {
			fmt.Printf("logged in as %s\n", profile.DisplayName())
		} else {
			fmt.Println("logged in")
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd)
}
