// Package main is the entry point for the postforge CLI.
// The CLI is the operator terminal tool for interacting with the postforge API.
package main

import (
	"os"

	"postforge/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
