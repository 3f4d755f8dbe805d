package main

import (
	"fmt"

	"github.com/Veraticus/crm-sheets/internal/cli"
	"github.com/spf13/cobra"
)

func reportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports <clients|deals|tasks>",
		Short: "List previously exported reports, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			rep, err := initReporting(app, nil)
			if err != nil {
				return err
			}

			files, err := rep.catalog.ListReports(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, cli.FormatWarning("No reports found for "+args[0]))
				return nil
			}

			rows := make([][]string, 0, len(files))
			for _, f := range files {
				modified := ""
				if !f.ModifiedAt.IsZero() {
					modified = f.ModifiedAt.Local().Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{modified, f.Name, f.WebLink})
			}
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d report(s)", len(files))))
			fmt.Fprintln(out, cli.RenderTable([]string{"Modified", "Name", "Link"}, rows))
			return nil
		},
	}
}
