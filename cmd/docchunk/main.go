// Package main provides the entry point for the docchunk CLI.
package main

import (
	"os"

	"github.com/dgallion1/docchunk/cmd/docchunk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
