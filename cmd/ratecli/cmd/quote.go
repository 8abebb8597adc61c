// Package cmd - quote command
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/coverline/rating-engine/factory"
	"github.com/coverline/rating-engine/rating"
	"github.com/coverline/rating-engine/store/sqlite"
)

var (
	quoteCatalog  string
	quoteDBPath   string
	quoteCurrency string

	quotePlan     string
	quoteKind     string
	quoteAsOf     string
	quoteCategory string
	quoteType     string
	quoteValue    string
	quoteCapacity int
	quoteExcess   string
	quoteCovers   []string
)

// quoteCmd prices a single quote from the command line, against either a
// catalog file or the sqlite store.
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a quote against a catalog file or the store",
	Long: `Price one vehicle on one plan and print the itemized breakdown.

Reference data comes from --catalog when given, otherwise from --db.

Examples:
  ratecli quote --catalog catalog.json --plan plan-gold --kind comprehensive \
      --category cat-private --type vt-sedan --value 12000
  ratecli quote --db rating.db --plan plan-tp --kind third_party \
      --type vt-sedan --capacity 1800`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteCatalog, "catalog", "", "catalog JSON file (overrides --db)")
	quoteCmd.Flags().StringVar(&quoteDBPath, "db", "rating.db", "SQLite database path")
	quoteCmd.Flags().StringVar(&quoteCurrency, "currency", "USD", "snapshot currency (store only)")

	quoteCmd.Flags().StringVar(&quotePlan, "plan", "", "plan id")
	quoteCmd.Flags().StringVar(&quoteKind, "kind", "", "comprehensive | third_party | commercial")
	quoteCmd.Flags().StringVar(&quoteAsOf, "as-of", "", "quote date YYYY-MM-DD (default today)")
	quoteCmd.Flags().StringVar(&quoteCategory, "category", "", "vehicle category id")
	quoteCmd.Flags().StringVar(&quoteType, "type", "", "vehicle type id")
	quoteCmd.Flags().StringVar(&quoteValue, "value", "", "insured value (decimal)")
	quoteCmd.Flags().IntVar(&quoteCapacity, "capacity", 0, "engine capacity in cc")
	quoteCmd.Flags().StringVar(&quoteExcess, "excess", "", "excess type id (default: catalog default)")
	quoteCmd.Flags().StringSliceVar(&quoteCovers, "cover", nil, "additional cover id (repeatable)")
}

func runQuote(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	engine, err := rating.NewEngine(snap)
	if err != nil {
		return err
	}

	req := rating.QuoteRequest{
		PlanID:            rating.PlanID(quotePlan),
		Kind:              rating.CoverageKind(quoteKind),
		VehicleCategoryID: rating.VehicleCategoryID(quoteCategory),
		VehicleTypeID:     rating.VehicleTypeID(quoteType),
	}

	if quoteAsOf != "" {
		t, err := time.Parse("2006-01-02", quoteAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
		req.AsOf = t
	}
	if quoteValue != "" {
		v, err := decimal.NewFromString(quoteValue)
		if err != nil {
			return fmt.Errorf("invalid --value: %w", err)
		}
		req.InsuredValue = &v
	}
	if quoteCapacity > 0 {
		req.EngineCapacity = &quoteCapacity
	}
	if quoteExcess != "" {
		id := rating.ExcessTypeID(quoteExcess)
		req.ExcessTypeID = &id
	}
	for _, c := range quoteCovers {
		req.CoverIDs = append(req.CoverIDs, rating.CoverID(c))
	}

	breakdown, err := engine.Quote(req)
	if err != nil {
		return err
	}

	printBreakdown(breakdown)
	return nil
}

func loadSnapshot() (*rating.Snapshot, error) {
	if quoteCatalog != "" {
		data, err := os.ReadFile(quoteCatalog)
		if err != nil {
			return nil, err
		}
		catalog, err := factory.Parse(data)
		if err != nil {
			return nil, err
		}
		return catalog.ToSnapshot()
	}

	store, err := sqlite.New(quoteDBPath, quoteCurrency)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadSnapshot(context.Background())
}

func printBreakdown(b *rating.QuotePriceBreakdown) {
	fmt.Printf("Plan %s (%s), %s, as of %s  [snapshot %s]\n\n",
		b.PlanCode, b.PlanID, b.Kind, b.AsOf.Format("2006-01-02"), b.SnapshotVersion)

	for _, l := range b.Lines {
		marker := " "
		if l.Informational {
			marker = "*"
		}
		fmt.Printf("  %s %-40s %12s %s\n", marker, l.Label,
			l.Amount.Value.StringFixed(rating.MoneyPrecision), b.Currency)
	}
	fmt.Printf("\n  %-42s %12s %s\n", "Total",
		b.Total.Value.StringFixed(rating.MoneyPrecision), b.Currency)
	fmt.Println("\n  * informational, not included in total")
}
