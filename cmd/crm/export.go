package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/crm-sheets/internal/cli"
	"github.com/Veraticus/crm-sheets/internal/exporter"
	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [clients|deals|tasks]",
		Short: "Export a section into a new Google spreadsheet",
		Long: `Create a brand-new spreadsheet for a section and fill it with a title band,
a summary block and the record table.

Each run creates a new document named "<section prefix> <YYYY-MM-DD HH-MM-SS>".
Use --all to export every section at once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().Bool("all", false, "Export clients, deals and tasks concurrently")
	cmd.Flags().String("folder", "", "Drive folder ID (default: folder_id from the settings file)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	folderID, _ := cmd.Flags().GetString("folder")

	if all == (len(args) == 1) {
		return errors.New("specify exactly one section or --all")
	}

	app, err := loadApp()
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Spreadsheets created before the interrupt stay in Drive.")
	ctx, release := interrupts.HandleInterrupts(cmd.Context())
	defer release()

	store, err := initStorage(ctx, app)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rep, err := initReporting(app, store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !all {
		section, ok := model.ParseSection(args[0])
		if !ok {
			return fmt.Errorf("unknown section %q (expected clients, deals or tasks)", args[0])
		}
		doc, err := rep.exporter.Export(ctx, section, folderID)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		printDocument(out, doc)
		return nil
	}

	bar := newExportBar(cmd.ErrOrStderr(), len(model.Sections))
	results := rep.exporter.ExportAll(ctx, folderID, func(exporter.Result) {
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	})

	var failed []error
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", res.Section, res.Err))
			rows = append(rows, []string{string(res.Section), cli.ErrorIcon, res.Err.Error()})
			continue
		}
		rows = append(rows, []string{string(res.Section), cli.SuccessIcon, res.Document.WebLink})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"Section", "", "Link"}, rows))

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d exports failed: %w", len(failed), len(results), errors.Join(failed...))
	}
	return nil
}

func newExportBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[green][bold]Exporting sections...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func printDocument(w io.Writer, doc *model.ReportDocument) {
	content := fmt.Sprintf("%s\n%s\n%s", doc.Title, doc.WebLink, cli.FormatSubtle("id: "+doc.ID))
	fmt.Fprintln(w, cli.RenderBox(cli.SuccessIcon+" Report created", content))
}
