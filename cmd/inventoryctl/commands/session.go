package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory-service/internal/client"
	"inventory-service/internal/domain"
	"inventory-service/internal/tui"
)

var uiShopping bool

// loginCmd checks the credentials
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials and show the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		user, err := c.Profile(cmd.Context())
		if err != nil {
			return err
		}
		name := user.DisplayName
		if name == "" {
			name = user.Email
		}
		success(cmd.OutOrStdout(), "Connecté en tant que %s", name)
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf("%s, membre depuis le %s", user.Email, user.CreatedAt.Format("02/01/2006"))))
		return nil
	},
}

// uiCmd starts the interactive board
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Interactive inventory and shopping list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		page := domain.PageInventory
		if uiShopping {
			page = domain.PageShopping
		}
		return tui.Run(client.NewBoard(c), page)
	},
}

func init() {
	uiCmd.Flags().BoolVar(&uiShopping, "shopping", false, "Open on the shopping list")
	rootCmd.AddCommand(loginCmd, uiCmd)
}
