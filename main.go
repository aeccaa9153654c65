// Package main is the entry point for the fogharvest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/TomDunham/fogharvest/cmd"
	"github.com/TomDunham/fogharvest/internal/logging"
)

// main executes the root command. Flag errors, config errors and failed
// runs all surface here and exit with status 2.
func main() {
	if err := cmd.Execute(); err != nil {
		logging.Error("run failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
