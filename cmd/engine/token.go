package main

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/secrets"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the sheet access token in the OS keychain",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the token",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := secrets.SetSourceToken(args[0]); err != nil {
			return err
		}
		pterm.Success.Println("token stored")
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored token",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := secrets.DeleteSourceToken(); err != nil {
			return err
		}
		pterm.Success.Println("token removed")
		return nil
	},
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a token is available",
	RunE: func(_ *cobra.Command, _ []string) error {
		_, err := secrets.GetSourceToken()
		switch {
		case errors.Is(err, secrets.ErrNoToken):
			pterm.Warning.Println(err.Error())
		case err != nil:
			return err
		default:
			pterm.Success.Println("token available")
		}
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd, tokenStatusCmd)
	rootCmd.AddCommand(tokenCmd)
}
