package main

import (
	"os"

	"github.com/jdowell/mlmbot/cmd/mlm/commands"
)

// main is the entry point for the mlm CLI: go run ./cmd/mlm [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
