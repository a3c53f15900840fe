package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/proxymancer/internal/deck"
	"github.com/arcanaland/proxymancer/internal/fetcher"
)

var downloadCmd = &cobra.Command{
	Use:   "download [CARD...]",
	Short: "Download the images for a deck list",
	Long: `Download resolves each deck line against Scryfall and saves one image per
face per copy. Cards come from the arguments, from --input, or from stdin.

Lines look like "2 Island", "1x Delver of Secrets (ISD)", "Forest (ZNR) 280"
or a ManaBox CSV export. Cards that cannot be resolved or downloaded are
logged and skipped.

Examples:
  proxymancer download "2 Island" "Lightning Bolt (M10)"
  proxymancer download -i deck.txt -o proxies --jobs 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		jobs := e.cfg.Jobs
		if cmd.Flags().Changed("jobs") {
			jobs, _ = cmd.Flags().GetInt("jobs")
		}

		lines, bad, err := deck.Load(deck.Source{Cards: args, File: input, Stdin: cmd.InOrStdin()})
		if err != nil {
			return err
		}
		for _, pe := range bad {
			e.log.Error("Skipping deck line", "line", pe.Number, "error", pe.Err)
		}

		f := fetcher.New(e.client, fetcher.Options{
			OutputDir: output,
			Jobs:      jobs,
			Force:     force,
			DryRun:    dryRun,
		}, e.log)

		report, err := f.Batch(cmd.Context(), lines, e.resolver)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d lines: %d written, %d already present", report.Lines, len(report.Written), len(report.Skipped))
		if dryRun {
			fmt.Fprintf(out, ", %d planned", len(report.Planned))
		}
		fmt.Fprintf(out, ", %d failed\n", len(report.Failures)+len(bad))
		for _, fl := range report.Failures {
			fmt.Fprintf(out, "  line %d: %s: %v\n", fl.Line.Number, fl.Line, fl.Err)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringP("input", "i", "", "Deck list file (text or .csv)")
	downloadCmd.Flags().StringP("output", "o", ".", "Output directory")
	downloadCmd.Flags().Int("jobs", 1, "Concurrent downloads (default from config)")
	downloadCmd.Flags().Bool("force", false, "Download even if the file already exists")
	downloadCmd.Flags().Bool("dry-run", false, "Resolve cards and log planned files without writing them")
}
