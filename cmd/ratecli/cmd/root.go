// Package cmd provides the CLI commands for ratecli.
package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ratecli",
	Short: "Operate on motor insurance rating catalogs",
	Long: `ratecli works with the rating engine's reference data: validate
catalog files, seed the back-office store, inspect snapshots, and price
quotes from the command line.

Examples:
  ratecli validate catalog.json
  ratecli seed --db rating.db catalog.json
  ratecli snapshot --db rating.db
  ratecli quote --catalog catalog.json --plan plan-gold --kind comprehensive \
      --category cat-private --type vt-sedan --value 12000`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(quoteCmd)
}
