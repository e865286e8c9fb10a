package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "plexlist",
	Short: "Build Plex playlists from IMDb and Letterboxd lists",
	Long: `plexlist ingests a ranked list from a list-aggregator site, resolves
every entry to a title, matches the titles against a Plex library
section, and creates a playlist from the matches.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config",
		"c",
		"",
		"path to config file",
	)
	rootCmd.MarkPersistentFlagRequired("config")

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"enable debug logging",
	)
}
