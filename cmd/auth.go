package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inboxbrief/inboxbrief/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account  string
		authCode string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain and store Google OAuth credentials",
		Long: `Prints the Google authorization URL. Open it in a browser, approve the
requested Gmail scopes, then run the command again with --code to exchange
the authorization code and cache the token.

GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set in the environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if authCode == "" {
				url, err := google.AuthURL()
				if err != nil {
					return err
				}
				fmt.Printf("Open the following URL in your browser:\n\n  %s\n\nThen run: inboxbrief auth --code <authorization-code>\n", url)
				return nil
			}

			if err := google.SaveToken(cmd.Context(), account, authCode); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Printf("Token saved for account %q\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Account name to store the token under")
	cmd.Flags().StringVar(&authCode, "code", "", "Authorization code from the consent page")

	return cmd
}
