// Package cmd - snapshot command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coverline/rating-engine/store/sqlite"
)

var (
	snapDBPath   string
	snapCurrency string
)

// snapshotCmd loads the store's current reference data and prints version
// and row counts, the same stats GET /api/snapshot reports.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the store's current reference data snapshot",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapDBPath, "db", "rating.db", "SQLite database path")
	snapshotCmd.Flags().StringVar(&snapCurrency, "currency", "USD", "snapshot currency")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	store, err := sqlite.New(snapDBPath, snapCurrency)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.LoadSnapshot(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("version:   %s\n", snap.Version)
	fmt.Printf("taken at:  %s\n", snap.TakenAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("currency:  %s\n", snap.Currency)
	fmt.Printf("plans:     %d\n", len(snap.Plans))
	fmt.Printf("tariffs:   %d\n", len(snap.Tariffs))
	fmt.Printf("value bands:    %d\n", len(snap.ValueBands))
	fmt.Printf("capacity bands: %d\n", len(snap.CapacityBands))
	fmt.Printf("covers:    %d\n", len(snap.AdditionalCovers))
	return nil
}
