// Package main is the entry point for the ratecli tool.
package main

import (
	"os"

	"github.com/coverline/rating-engine/cmd/ratecli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
