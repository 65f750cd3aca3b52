package main

import (
	"os"

	"github.com/truffle-roll/truffle/cmd/truffle/commands"
)

// main is the entry point for the truffle CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
