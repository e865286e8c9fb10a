package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/plexlist/plexlist/internal/report"
)

var (
	matchURL     string
	matchLibrary string
	matchOut     string
)

// matchCmd runs ingestion and matching without writing anything to the
// server: a dry run with an optional unmatched-title export.
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a list against the library without creating a playlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMatch(cfgFile, matchURL, matchLibrary, matchOut)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&matchURL, "url", "u", "", "list URL (IMDb or Letterboxd)")
	matchCmd.MarkFlagRequired("url")

	matchCmd.Flags().StringVarP(&matchLibrary, "library", "l", "", "Plex library section (defaults to config)")

	matchCmd.Flags().StringVarP(&matchOut, "out", "o", "", "write unmatched titles to this TSV file")
}

func runMatch(configPath, listURL, library, outPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d, err := setup(configPath)
	if err != nil {
		return err
	}
	defer d.close()

	if library == "" {
		library = d.cfg.Plex.Library
	}

	out, err := ingestAndMatch(ctx, d, listURL, library)
	if err != nil {
		return err
	}

	report.WriteSummary(os.Stdout, report.Summary{
		ListTitle:     out.ingest.ListTitle,
		PagesFetched:  out.ingest.PagesFetched,
		ItemsParsed:   out.ingest.ItemsParsed,
		Titled:        len(out.ingest.Titles),
		FetchFailures: len(out.ingest.FetchFailures),
		Matched:       len(out.matched),
		Unmatched:     len(out.unmatched),
	})

	if outPath != "" && len(out.unmatched) > 0 {
		rows := report.BuildUnmatched(out.ingest.Titles, out.unmatched, out.index.Keys())

		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer file.Close()

		if err := report.WriteTSV(file, rows); err != nil {
			return err
		}
		fmt.Printf("Wrote %d unmatched titles to %s.\n", len(rows), outPath)
	}

	return nil
}
