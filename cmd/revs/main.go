// Command revs is the maintenance CLI for the reviews corpus.
//
// Usage:
//
//	revs seed --fixture FILE     Load a fixture page into the store
//	revs serve --addr :8080      Serve the store as a paged JSON endpoint
//	revs events                  JSONL event log viewer
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/reviews/internal/config"
	"github.com/abelbrown/reviews/internal/logging"
)

var (
	configPath string
	dbFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "revs",
	Short: "Reviews debug & maintenance CLI",
	Long: `revs manages the local reviews corpus: seed it from a fixture,
serve it over HTTP for the TUI's http source, and read the event log
the TUI writes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.ConfigPath(), "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite store path (default <data dir>/reviews.db)")
}

func main() {
	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "revs: %v\n", err)
		os.Exit(1)
	}
}
