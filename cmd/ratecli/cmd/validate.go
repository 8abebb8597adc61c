// Package cmd - validate command
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coverline/rating-engine/factory"
	"github.com/coverline/rating-engine/rating"
)

// validateCmd parses a catalog file and runs every build-time check: band
// overlap, duplicate attachments, and tariff window integrity.
var validateCmd = &cobra.Command{
	Use:   "validate <catalog.json>",
	Short: "Validate a catalog file without touching any store",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	// Index construction performs the tariff window overlap check.
	engine, err := rating.NewEngine(snap)
	if err != nil {
		return fmt.Errorf("catalog invalid: %w", err)
	}

	fmt.Printf("catalog OK: version %s, %d plans, %d tariffs indexed\n",
		snap.Version, len(snap.Plans), engine.Index().Size())
	return nil
}
