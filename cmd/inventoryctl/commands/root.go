package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inventory-service/internal/client"
)

var (
	// Global flags
	serverURL string
	email     string
	password  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "inventoryctl",
	Short: "Household inventory and shopping list from the terminal",
	Long: `inventoryctl talks to the inventory service HTTP API.

Credentials default to INVENTORY_EMAIL and INVENTORY_PASSWORD, the server to
INVENTORY_SERVER.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ ")+err.Error())
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("INVENTORY_SERVER", "http://localhost:8080"), "Inventory service base URL")
	rootCmd.PersistentFlags().StringVar(&email, "email", os.Getenv("INVENTORY_EMAIL"), "Account email")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("INVENTORY_PASSWORD"), "Account password")
}

// signedIn returns a client with an open session.
func signedIn(ctx context.Context) (*client.Client, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("credentials required: use --email/--password or INVENTORY_EMAIL/INVENTORY_PASSWORD")
	}
	c, err := client.New(serverURL, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.SignIn(ctx, email, password); err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}
	return c, nil
}

// loadedBoard signs in and loads the product board.
func loadedBoard(ctx context.Context) (*client.Board, *client.Client, error) {
	c, err := signedIn(ctx)
	if err != nil {
		return nil, nil, err
	}
	board := client.NewBoard(c)
	if err := board.Refresh(ctx); err != nil {
		return nil, nil, err
	}
	return board, c, nil
}
