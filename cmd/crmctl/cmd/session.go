package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"amazobank.com/crm/auth"
)

var (
	idToken     string
	accessToken string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the tokens returned by the identity provider",
	Long: `Stores an identity provider token bundle as the local session. The id
token is preferred; the access token is used when no id token is given.

Nothing is stored when the preferred token cannot be resolved to a user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if idToken == "" && accessToken == "" {
			return errors.New("--id-token or --access-token is required")
		}
		store, closeFn, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		principal, err := store.SignIn(cmd.Context(), auth.TokenBundle{IDToken: idToken, AccessToken: accessToken})
		if err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", principal.Email, principal.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.SignOut(cmd.Context()); err != nil {
			return fmt.Errorf("sign-out failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in principal",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		principal, err := store.Principal(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), principal)
	},
}

func init() {
	loginCmd.Flags().StringVar(&idToken, "id-token", "", "Identity token from the identity provider")
	loginCmd.Flags().StringVar(&accessToken, "access-token", "", "Access token from the identity provider")
}
