// Package main provides the join-collective chat client.
package main

import (
	"os"

	"github.com/sidekick-universe/sidekick/internal/cli"
)

func main() {
	if err := cli.ExecuteCollective(); err != nil {
		os.Exit(1)
	}
}
