package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/plexlist/plexlist/internal/report"
)

var (
	createURL     string
	createName    string
	createLibrary string
)

// createCmd ingests a list, matches it against the library, and creates a
// playlist from the matches.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a Plex playlist from a list URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(cfgFile, createURL, createName, createLibrary)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createURL, "url", "u", "", "list URL (IMDb or Letterboxd)")
	createCmd.MarkFlagRequired("url")

	createCmd.Flags().StringVarP(&createName, "name", "n", "", "playlist name (defaults to the list title)")

	createCmd.Flags().StringVarP(&createLibrary, "library", "l", "", "Plex library section (defaults to config)")
}

func runCreate(configPath, listURL, name, library string) error {
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

	if len(out.matched) == 0 {
		return errors.New("no matching items found in the library")
	}

	if name == "" {
		name = out.ingest.ListTitle
	}

	keys := make([]string, len(out.matched))
	for i, e := range out.matched {
		keys[i] = e.Key
	}
	if err := d.client.CreatePlaylist(ctx, name, keys); err != nil {
		return fmt.Errorf("create playlist: %w", err)
	}

	fmt.Printf("Created playlist %q with %d items.\n", name, len(keys))
	return nil
}
