package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var exportLibrary string

// exportCmd dumps a library section's titles to a dated text file, one per
// line. Useful for checking what the matcher will see.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a library section's titles to a text file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cfgFile, exportLibrary)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportLibrary, "library", "l", "", "Plex library section (defaults to config)")
}

func runExport(configPath, library string) error {
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

	fmt.Println("--- Requesting Library Entries ---")

	entries, err := d.client.EnumeratePartition(ctx, library)
	if err != nil {
		return fmt.Errorf("enumerate library: %w", err)
	}
	fmt.Printf("Got %d entries.\n", len(entries))

	t := time.Now()
	file, err := os.Create(fmt.Sprintf("%d-%02d-%02d-%s.txt", t.Year(), t.Month(), t.Day(), library))
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	for _, e := range entries {
		if _, err := fmt.Fprintf(file, "%s\t%s\t%s\n", e.Key, e.Type, e.Title); err != nil {
			return err
		}
	}

	return nil
}
