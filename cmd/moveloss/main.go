// Package main provides the moveloss CLI: it converts PGN games into
// position records, annotates them with engine evaluations and reports
// move-quality statistics.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
