package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/crm-sheets/internal/cli"
	"github.com/Veraticus/crm-sheets/internal/common"
	"github.com/Veraticus/crm-sheets/internal/sheets"
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authGoogleCmd())

	return cmd
}

func authGoogleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "google",
		Short: "Authorize the delegated Google identity",
		Long: `Authorize crm to create spreadsheets in your own Google Drive.

This command will:
1. Read the OAuth client secret configured as client_secret_path
2. Print the Google consent URL and wait for the redirect
3. Save the token next to the client secret file

Exports then create documents under your account, so they count against your
storage quota, and share them with the service account if one is configured.`,
		RunE: runAuthGoogle,
	}

	cmd.Flags().String("callback-addr", sheets.DefaultCallbackAddr, "Local address that receives the OAuth redirect")

	return cmd
}

func runAuthGoogle(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	callbackAddr, _ := cmd.Flags().GetString("callback-addr")

	app, err := loadApp()
	if err != nil {
		return err
	}
	st, err := initSettings(app).Current()
	if err != nil {
		return err
	}
	if st.ClientSecretPath == "" {
		return common.NewUserError("run 'crm settings upload client_secret <file.json>' first", sheets.ErrMissingCredentials)
	}

	tokenFile := sheets.TokenFileFor(st.ClientSecretPath, sheetsConfig(app).TokenFileName)
	slog.Info("Starting Google authentication", "token_file", tokenFile)

	token, err := sheets.AuthenticateOAuth2Interactive(ctx, sheets.OAuth2Config{
		ClientSecretPath: st.ClientSecretPath,
		TokenFile:        tokenFile,
		CallbackAddr:     callbackAddr,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if token.RefreshToken == "" {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Google returned no refresh token; the saved token expires and will need re-authorization"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Google authorization saved to "+tokenFile))
	return nil
}
