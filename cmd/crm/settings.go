package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/crm-sheets/internal/cli"
	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the Google export settings",
	}

	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())
	cmd.AddCommand(settingsUploadCmd())

	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the settings file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			st := initSettings(app)

			raw, err := st.Raw()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(raw, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSubtle(st.Path()))
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func settingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update folder and credential paths",
		Long: `Update the allow-listed settings keys. Only the flags you pass are changed;
any other keys already in the file are kept. Relative credential paths are
resolved against the settings file's directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch settings.Patch
			flagValue := func(name string) *string {
				if !cmd.Flags().Changed(name) {
					return nil
				}
				v, _ := cmd.Flags().GetString(name)
				return &v
			}
			patch.FolderID = flagValue("folder-id")
			patch.CredentialsPath = flagValue("credentials")
			patch.ClientSecretPath = flagValue("client-secret")

			if patch.FolderID == nil && patch.CredentialsPath == nil && patch.ClientSecretPath == nil {
				return fmt.Errorf("nothing to update: pass --folder-id, --credentials or --client-secret")
			}

			app, err := loadApp()
			if err != nil {
				return err
			}
			if _, err := initSettings(app).Update(patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Settings saved"))
			return nil
		},
	}

	cmd.Flags().String("folder-id", "", "Drive folder that receives new reports")
	cmd.Flags().String("credentials", "", "Service account key file")
	cmd.Flags().String("client-secret", "", "OAuth client secret file for the delegated identity")

	return cmd
}

func settingsUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <credentials|client_secret> <file.json>",
		Short: "Copy a credential file next to the settings and point the settings at it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := settings.CredentialTarget(args[0])
			if !strings.EqualFold(filepath.Ext(args[1]), ".json") {
				return fmt.Errorf("a .json file is required")
			}
			content, err := os.ReadFile(args[1]) // #nosec G304 -- user-supplied path is the point
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}

			app, err := loadApp()
			if err != nil {
				return err
			}
			st := initSettings(app)

			name, err := st.SaveCredential(target, content)
			if err != nil {
				return err
			}

			var patch settings.Patch
			if target == settings.TargetCredentials {
				patch.CredentialsPath = &name
			} else {
				patch.ClientSecretPath = &name
			}
			if _, err := st.Update(patch); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Stored %s as %s", args[1], filepath.Join(st.Dir(), name))))
			return nil
		},
	}
}
