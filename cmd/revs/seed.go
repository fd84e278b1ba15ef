package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/reviews/internal/errors"
	"github.com/abelbrown/reviews/internal/review"
)

var (
	seedFixture string
	seedReset   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a fixture page into the store",
	Long: `Decodes a fixture holding one page payload ({"items": [...], "count": N})
and inserts every review into the SQLite store. Reviews already present
are skipped, so seeding twice is harmless.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFixture, "fixture", "testdata/reviews.json", "Fixture file to load")
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "Delete every stored review first")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)

	data, err := os.ReadFile(seedFixture)
	if err != nil {
		return errors.E(errors.Op("revs.seed"), errors.KindIO, err)
	}
	page, err := review.Decode(data)
	if err != nil {
		return err
	}

	st, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if seedReset {
		if err := st.Reset(); err != nil {
			return err
		}
	}
	added, err := st.SaveReviews(page.Items)
	if err != nil {
		return err
	}
	total, err := st.Count()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d reviews from %s (%d stored)\n",
		added, len(page.Items), seedFixture, total)
	return nil
}
