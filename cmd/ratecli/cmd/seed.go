// Package cmd - seed command
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coverline/rating-engine/factory"
	"github.com/coverline/rating-engine/store/sqlite"
)

var (
	seedDBPath   string
	seedCurrency string
)

// seedCmd loads a catalog file into the sqlite back-office store, replacing
// whatever is there.
var seedCmd = &cobra.Command{
	Use:   "seed <catalog.json>",
	Short: "Seed the back-office store from a catalog file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDBPath, "db", "rating.db", "SQLite database path")
	seedCmd.Flags().StringVar(&seedCurrency, "currency", "USD", "snapshot currency")
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	catalog, err := factory.Parse(data)
	if err != nil {
		return err
	}
	snap, err := catalog.ToSnapshot()
	if err != nil {
		return fmt.Errorf("catalog invalid: %w", err)
	}

	store, err := sqlite.New(seedDBPath, seedCurrency)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Seed(context.Background(), snap); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	fmt.Printf("seeded %s: version %s, %d plans, %d tariffs\n",
		seedDBPath, snap.Version, len(snap.Plans), len(snap.Tariffs))
	return nil
}
