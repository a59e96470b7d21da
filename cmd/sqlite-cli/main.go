// Package main provides the sqlite-cli SQLite explorer.
package main

import (
	"os"

	"github.com/sidekick-universe/sidekick/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
